package handlers_test

import (
	"DriveKeeper/internal/config"
	"DriveKeeper/internal/handlers"
	"DriveKeeper/internal/middleware"
	"DriveKeeper/internal/repo"
	"DriveKeeper/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newHandlersTestRouter собирает роутер поверх настоящих сервисов и SQLite во временном файле.
func newHandlersTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.CloseDB(db) })

	logger := zap.NewNop().Sugar()
	cfg := &config.Config{BaseURL: "localhost:8081"}
	drives := service.NewDriveRegistry(repo.NewDriveRepository(db), logger)
	dests := service.NewDestinationMemory(repo.NewDestinationRepository(db), logger)
	h := handlers.NewHandler(drives, dests, logger, cfg, func(ctx context.Context) error { return repo.Ping(ctx, db) })
	return h.Router, db
}

// do выполняет запрос от имени пользователя/клиента. userID=0 и client="" — без заголовков.
func do(t *testing.T, router http.Handler, method, target string, userID int64, client string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(userID, 10))
	}
	if client != "" {
		req.Header.Set(middleware.HeaderClientID, client)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	body := rr.Body.String()
	require.NoError(t, json.Unmarshal([]byte(body), &v), body)
	return v
}
