package service

import (
	"DriveKeeper/internal/model"
	"DriveKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DriveRegistry ведёт канонический набор носителей пользователя и их точки монтирования
// на клиентах. Один носитель с разных машин сводится к одной записи по unique_identifier.
type DriveRegistry struct {
	repo   repo.DriveRepository
	logger *zap.SugaredLogger
}

func NewDriveRegistry(r repo.DriveRepository, logger *zap.SugaredLogger) *DriveRegistry {
	return &DriveRegistry{repo: r, logger: logger}
}

// RegisterDrive регистрирует носитель, о котором сообщил клиент, и возвращает его
// со всеми точками монтирования.
func (s *DriveRegistry) RegisterDrive(ctx context.Context, userID int64, clientID string, info model.DriveInfo) (*model.Drive, error) {
	const op = "RegisterDrive"
	drives, err := s.register(ctx, op, userID, clientID, []model.DriveInfo{info})
	if err != nil {
		return nil, err
	}
	if len(drives) == 0 {
		return nil, logFailure(s.logger, op, fmt.Errorf("%s: %w: empty result", op, ErrStorage),
			"user_id", userID, "client_id", clientID, "unique_identifier", info.UniqueIdentifier)
	}
	return &drives[0], nil
}

// RegisterDrivesBatch регистрирует пачку носителей в одной транзакции.
// Если хотя бы один элемент невалиден, не сохраняется ни один.
func (s *DriveRegistry) RegisterDrivesBatch(ctx context.Context, userID int64, clientID string, infos []model.DriveInfo) ([]model.Drive, error) {
	if len(infos) == 0 {
		return []model.Drive{}, nil
	}
	return s.register(ctx, "RegisterDrivesBatch", userID, clientID, infos)
}

func (s *DriveRegistry) register(ctx context.Context, op string, userID int64, clientID string, infos []model.DriveInfo) ([]model.Drive, error) {
	clientID = strings.TrimSpace(clientID)
	if err := requireIdentity(userID, clientID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID, "client_id", clientID)
	}

	prepared := make([]model.DriveInfo, 0, len(infos))
	for i, info := range infos {
		p, err := prepareDriveInfo(info)
		if err != nil {
			return nil, logFailure(s.logger, op, err,
				"user_id", userID, "client_id", clientID, "index", i, "unique_identifier", info.UniqueIdentifier)
		}
		prepared = append(prepared, p)
	}

	drives, err := s.repo.Register(ctx, userID, clientID, prepared)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err),
			"user_id", userID, "client_id", clientID, "count", len(prepared))
	}
	return drives, nil
}

// prepareDriveInfo чистит и проверяет сообщение клиента.
func prepareDriveInfo(info model.DriveInfo) (model.DriveInfo, error) {
	info.UniqueIdentifier = strings.TrimSpace(info.UniqueIdentifier)
	info.DriveType = strings.ToLower(strings.TrimSpace(info.DriveType))
	info.VolumeLabel = strings.TrimSpace(info.VolumeLabel)
	info.CloudProvider = strings.TrimSpace(info.CloudProvider)
	info.MountPoint = strings.TrimSpace(info.MountPoint)
	if err := validateStruct(info); err != nil {
		return info, err
	}
	mp, err := NormalizePath(info.MountPoint)
	if err != nil {
		return info, err
	}
	info.MountPoint = mp
	return info, nil
}

// UpdateDriveAvailability меняет доступность носителя на одном клиенте и пересчитывает
// общую доступность как OR по всем клиентам. Точка монтирования должна быть уже зарегистрирована.
func (s *DriveRegistry) UpdateDriveAvailability(ctx context.Context, userID int64, identifier string, available bool, clientID string) (*model.Drive, error) {
	const op = "UpdateDriveAvailability"
	identifier = strings.TrimSpace(identifier)
	clientID = strings.TrimSpace(clientID)
	kv := []any{"user_id", userID, "client_id", clientID, "unique_identifier", identifier, "available", available}

	if err := requireIdentity(userID, clientID); err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}
	if identifier == "" {
		return nil, logFailure(s.logger, op, validationErr("unique_identifier is required"), kv...)
	}

	d, err := s.repo.SetMountAvailability(ctx, userID, identifier, clientID, available)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return d, nil
}

// MarkClientOffline помечает недоступными все носители клиента (клиент отключился).
// Возвращает число изменённых точек монтирования.
func (s *DriveRegistry) MarkClientOffline(ctx context.Context, userID int64, clientID string) (int64, error) {
	const op = "MarkClientOffline"
	clientID = strings.TrimSpace(clientID)
	if err := requireIdentity(userID, clientID); err != nil {
		return 0, logFailure(s.logger, op, err, "user_id", userID, "client_id", clientID)
	}
	n, err := s.repo.SetClientOffline(ctx, userID, clientID)
	if err != nil {
		return 0, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "client_id", clientID)
	}
	return n, nil
}

// MatchDriveByIdentifier — точный поиск по unique_identifier. nil, nil если носитель неизвестен.
func (s *DriveRegistry) MatchDriveByIdentifier(ctx context.Context, userID int64, identifier string) (*model.Drive, error) {
	const op = "MatchDriveByIdentifier"
	identifier = strings.TrimSpace(identifier)
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	if identifier == "" {
		return nil, logFailure(s.logger, op, validationErr("unique_identifier is required"), "user_id", userID)
	}
	d, err := s.repo.GetByIdentifier(ctx, userID, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "unique_identifier", identifier)
	}
	return d, nil
}

// GetDrive возвращает носитель пользователя по id.
func (s *DriveRegistry) GetDrive(ctx context.Context, userID int64, driveID string) (*model.Drive, error) {
	const op = "GetDrive"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	d, err := s.repo.GetByID(ctx, userID, driveID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "drive_id", driveID)
	}
	return d, nil
}

// GetDriveForPath ищет среди доступных точек монтирования клиента ту, что является
// самым длинным префиксом пути: /media/usb/project побеждает /media/usb.
func (s *DriveRegistry) GetDriveForPath(ctx context.Context, userID int64, path, clientID string) (*model.Drive, error) {
	const op = "GetDriveForPath"
	clientID = strings.TrimSpace(clientID)
	kv := []any{"user_id", userID, "client_id", clientID, "path", path}
	if err := requireIdentity(userID, clientID); err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}
	p, err := NormalizePath(path)
	if err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}

	drives, err := s.repo.ListByClient(ctx, userID, clientID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}

	var (
		best    *model.Drive
		bestLen = -1
	)
	for i := range drives {
		m, ok := drives[i].MountFor(clientID)
		if !ok || !m.IsAvailable {
			continue
		}
		if hasPathPrefix(p, m.MountPoint) && len(m.MountPoint) > bestLen {
			best, bestLen = &drives[i], len(m.MountPoint)
		}
	}
	return best, nil
}

// GetDrives возвращает все носители пользователя.
func (s *DriveRegistry) GetDrives(ctx context.Context, userID int64) ([]model.Drive, error) {
	const op = "GetDrives"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	drives, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID)
	}
	return drives, nil
}

// GetClientDrives возвращает носители, смонтированные на клиенте (для контекста ИИ).
func (s *DriveRegistry) GetClientDrives(ctx context.Context, userID int64, clientID string) ([]model.Drive, error) {
	const op = "GetClientDrives"
	clientID = strings.TrimSpace(clientID)
	if err := requireIdentity(userID, clientID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID, "client_id", clientID)
	}
	drives, err := s.repo.ListByClient(ctx, userID, clientID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "client_id", clientID)
	}
	return drives, nil
}

// GetSharedCloudDrives возвращает облачные носители: один аккаунт, о котором сообщили
// N машин, виден как один носитель с N точками монтирования. Пустой provider — все облака.
func (s *DriveRegistry) GetSharedCloudDrives(ctx context.Context, userID int64, provider string) ([]model.Drive, error) {
	const op = "GetSharedCloudDrives"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	drives, err := s.repo.ListCloud(ctx, userID, strings.TrimSpace(provider))
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "provider", provider)
	}
	return drives, nil
}

func requireUser(userID int64) error {
	if userID <= 0 {
		return validationErr("user_id must be positive")
	}
	return nil
}

func requireIdentity(userID int64, clientID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if clientID == "" {
		return validationErr("client_id is required")
	}
	return nil
}
