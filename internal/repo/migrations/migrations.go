package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Встроенные SQL-миграции сервера. DDL общий для SQLite и PostgreSQL.
//
//go:embed files/*.sql
var migrationFiles embed.FS

// Поддерживаемые диалекты (совпадают с gorm Dialector.Name()).
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Ошибки состояния схемы.
var (
	ErrNoVersion       = errors.New("schema is not versioned")
	ErrDirty           = errors.New("schema is dirty")
	ErrVersionMismatch = errors.New("schema version does not match binary")
)

// MigrateUp применяет все недостающие миграции.
// Соединение принадлежит вызывающему: migrate.Close() не вызывается, иначе закроется db.
func MigrateUp(db *sql.DB, dialect string) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// CheckVersion сверяет версию схемы в БД с последней встроенной миграцией.
// InitDB вызывает её после MigrateUp: сервер не стартует на грязной или чужой схеме.
func CheckVersion(db *sql.DB, dialect string) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	current, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return ErrNoVersion
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case dirty:
		return fmt.Errorf("%w at version %d", ErrDirty, current)
	}

	want, err := LatestVersion()
	if err != nil {
		return err
	}
	if current != want {
		return fmt.Errorf("%w: database %d, binary %d", ErrVersionMismatch, current, want)
	}
	return nil
}

// LatestVersion — номер последней встроенной миграции.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("open embedded migrations: %w", err)
	}
	defer src.Close()
	return lastOf(src)
}

func lastOf(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			// источник кончился
			return v, nil
		}
		v = next
	}
}

func newMigrate(db *sql.DB, dialect string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	var drv database.Driver
	switch dialect {
	case DialectSQLite:
		drv, err = sqlite.WithInstance(db, &sqlite.Config{})
	case DialectPostgres:
		drv, err = pgx.WithInstance(db, &pgx.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		src.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, drv)
	if err != nil {
		src.Close()
		return nil, err
	}
	return m, nil
}
