package repo

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// newTestDB открывает SQLite (modernc.org/sqlite) во временном файле и применяет миграции.
// Файл у каждого теста свой, поэтому данные между тестами не пересекаются.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to init sqlite (modernc): %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}
