package commands

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"DriveKeeper/internal/config"
	"DriveKeeper/internal/handlers"
	"DriveKeeper/internal/repo"
	"DriveKeeper/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestServer поднимает настоящий сервер DriveKeeper поверх SQLite во временном файле.
func newTestServer(t *testing.T) string {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.CloseDB(db) })

	logger := zap.NewNop().Sugar()
	h := handlers.NewHandler(
		service.NewDriveRegistry(repo.NewDriveRepository(db), logger),
		service.NewDestinationMemory(repo.NewDestinationRepository(db), logger),
		logger, &config.Config{}, nil,
	)
	ts := httptest.NewServer(h.Router)
	t.Cleanup(ts.Close)
	return ts.URL
}

func run(t *testing.T, cfg *config.Config, args ...string) (int, string) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return code, out
}

func TestCommands_DrivesFlow(t *testing.T) {
	url := newTestServer(t)
	laptop := &config.Config{ServerURL: url, UserID: 5, ClientID: "laptop"}
	desktop := &config.Config{ServerURL: url, UserID: 5, ClientID: "desktop"}

	code, out := run(t, laptop, "drive-add", "SN-9", "/media/usb", "usb", "Stick")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "label=Stick")

	code, out = run(t, desktop, "drive-add", "SN-9", "/mnt/stick", "usb")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "desktop: /mnt/stick")
	assert.Contains(t, out, "laptop: /media/usb")

	code, out = run(t, laptop, "drive-status", "SN-9", "off")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "online") // на desktop носитель ещё подключён

	code, out = run(t, desktop, "offline")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "1")

	code, out = run(t, laptop, "drives")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "Всего: 1")

	code, _ = run(t, laptop, "drive-add", "SN-9", "/m", "tape")
	assert.Equal(t, 1, code)

	code, _ = run(t, laptop, "drive-status", "SN-9", "maybe")
	assert.Equal(t, 2, code)
}

func TestCommands_DestinationsFlow(t *testing.T) {
	url := newTestServer(t)
	cfg := &config.Config{ServerURL: url, UserID: 5, ClientID: "laptop"}

	code, out := run(t, cfg, "dests")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Нет папок назначения")

	code, out = run(t, cfg, "capture", "move:/home/me/invoices/a.pdf", "copy:/srv/photo_archive/b.jpg", "delete:/tmp/x")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Новых папок: 2")
	assert.Contains(t, out, "[Photo Archive]")

	code, out = run(t, cfg, "dest-add", "/data/music", "Audio")
	require.Equal(t, 0, code, out)
	id := strings.Fields(strings.TrimPrefix(strings.TrimSpace(out), "- "))[0]

	code, out = run(t, cfg, "usage", id, "3", "move")
	require.Equal(t, 0, code, out)

	code, out = run(t, cfg, "dests", "audio")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "used=1")

	code, out = run(t, cfg, "analytics")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Папок: 3")
	assert.Contains(t, out, "файлов: 3")

	code, out = run(t, cfg, "dest-rm", id)
	require.Equal(t, 0, code, out)

	code, _ = run(t, cfg, "dest-rm", id)
	assert.Equal(t, 0, code, "повторное удаление не ошибка")

	code, _ = run(t, cfg, "usage", id, "x", "move")
	assert.Equal(t, 2, code)

	code, _ = run(t, cfg, "capture", "nocolon")
	assert.Equal(t, 2, code)
}

func TestParseOperations(t *testing.T) {
	ops, err := parseOperations([]string{`COPY:C:\docs\a.txt`, "move:/x/y"})
	require.NoError(t, err)
	assert.Equal(t, "copy", ops[0].Type)
	assert.Equal(t, `C:\docs\a.txt`, ops[0].Dest)
	assert.Equal(t, "/x/y", ops[1].Dest)

	_, err = parseOperations(nil)
	assert.ErrorIs(t, err, ErrUsage)
}
