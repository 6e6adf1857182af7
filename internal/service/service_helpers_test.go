package service

import (
	"DriveKeeper/internal/model"
	"DriveKeeper/internal/repo"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestServices поднимает оба сервиса поверх SQLite во временном файле.
func newTestServices(t *testing.T) (*DriveRegistry, *DestinationMemory, *gorm.DB) {
	t.Helper()
	db, err := repo.InitDB(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = repo.CloseDB(db) })
	logger := zap.NewNop().Sugar()
	return NewDriveRegistry(repo.NewDriveRepository(db), logger),
		NewDestinationMemory(repo.NewDestinationRepository(db), logger),
		db
}

// Моки репозиториев для проверки сопоставления ошибок
type mockDriveRepo struct{ mock.Mock }

func (m *mockDriveRepo) Register(ctx context.Context, userID int64, clientID string, infos []model.DriveInfo) ([]model.Drive, error) {
	args := m.Called(ctx, userID, clientID, infos)
	if v, ok := args.Get(0).([]model.Drive); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDriveRepo) SetMountAvailability(ctx context.Context, userID int64, identifier, clientID string, available bool) (*model.Drive, error) {
	args := m.Called(ctx, userID, identifier, clientID, available)
	if v, ok := args.Get(0).(*model.Drive); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDriveRepo) SetClientOffline(ctx context.Context, userID int64, clientID string) (int64, error) {
	args := m.Called(ctx, userID, clientID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockDriveRepo) GetByIdentifier(ctx context.Context, userID int64, identifier string) (*model.Drive, error) {
	args := m.Called(ctx, userID, identifier)
	if v, ok := args.Get(0).(*model.Drive); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDriveRepo) GetByID(ctx context.Context, userID int64, id string) (*model.Drive, error) {
	args := m.Called(ctx, userID, id)
	if v, ok := args.Get(0).(*model.Drive); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDriveRepo) ListAll(ctx context.Context, userID int64) ([]model.Drive, error) {
	return m.list(m.Called(ctx, userID))
}
func (m *mockDriveRepo) ListByClient(ctx context.Context, userID int64, clientID string) ([]model.Drive, error) {
	return m.list(m.Called(ctx, userID, clientID))
}
func (m *mockDriveRepo) ListCloud(ctx context.Context, userID int64, provider string) ([]model.Drive, error) {
	return m.list(m.Called(ctx, userID, provider))
}
func (m *mockDriveRepo) list(args mock.Arguments) ([]model.Drive, error) {
	if v, ok := args.Get(0).([]model.Drive); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.DriveRepository = (*mockDriveRepo)(nil)

type mockDestinationRepo struct{ mock.Mock }

func (m *mockDestinationRepo) Upsert(ctx context.Context, d *model.Destination) (*model.Destination, bool, error) {
	args := m.Called(ctx, d)
	if v, ok := args.Get(0).(*model.Destination); ok {
		return v, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}
func (m *mockDestinationRepo) Deactivate(ctx context.Context, userID int64, id string) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}
func (m *mockDestinationRepo) IncrementUsage(ctx context.Context, ev *model.UsageEvent) error {
	return m.Called(ctx, ev).Error(0)
}
func (m *mockDestinationRepo) GetByID(ctx context.Context, userID int64, id string) (*model.Destination, error) {
	args := m.Called(ctx, userID, id)
	if v, ok := args.Get(0).(*model.Destination); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDestinationRepo) ListActive(ctx context.Context, userID int64) ([]model.Destination, error) {
	return m.list(m.Called(ctx, userID))
}
func (m *mockDestinationRepo) ListActiveByCategory(ctx context.Context, userID int64, category string) ([]model.Destination, error) {
	return m.list(m.Called(ctx, userID, category))
}
func (m *mockDestinationRepo) ListActiveForClient(ctx context.Context, userID int64, clientID string) ([]model.Destination, error) {
	return m.list(m.Called(ctx, userID, clientID))
}
func (m *mockDestinationRepo) ListByPaths(ctx context.Context, userID int64, paths []string) ([]model.Destination, error) {
	return m.list(m.Called(ctx, userID, paths))
}
func (m *mockDestinationRepo) ListUsage(ctx context.Context, userID int64, destinationID string, limit int) ([]model.UsageEvent, error) {
	args := m.Called(ctx, userID, destinationID, limit)
	if v, ok := args.Get(0).([]model.UsageEvent); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDestinationRepo) TotalFiles(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockDestinationRepo) list(args mock.Arguments) ([]model.Destination, error) {
	if v, ok := args.Get(0).([]model.Destination); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.DestinationRepository = (*mockDestinationRepo)(nil)
