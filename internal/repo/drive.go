package repo

import (
	"DriveKeeper/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DriveRepository — доступ к drives и drive_client_mounts.
// Поиск-или-создание выполняется только через upsert хранилища, без SELECT+INSERT.
type DriveRepository interface {
	// Register регистрирует носители одного клиента в одной транзакции: либо все, либо ни одного.
	Register(ctx context.Context, userID int64, clientID string, infos []model.DriveInfo) ([]model.Drive, error)

	// SetMountAvailability меняет доступность точки монтирования клиента и пересчитывает
	// агрегированную доступность носителя. gorm.ErrRecordNotFound, если нет носителя или точки.
	SetMountAvailability(ctx context.Context, userID int64, identifier, clientID string, available bool) (*model.Drive, error)

	// SetClientOffline помечает недоступными все точки монтирования клиента.
	SetClientOffline(ctx context.Context, userID int64, clientID string) (int64, error)

	GetByIdentifier(ctx context.Context, userID int64, identifier string) (*model.Drive, error)
	GetByID(ctx context.Context, userID int64, id string) (*model.Drive, error)
	ListAll(ctx context.Context, userID int64) ([]model.Drive, error)
	ListByClient(ctx context.Context, userID int64, clientID string) ([]model.Drive, error)
	ListCloud(ctx context.Context, userID int64, provider string) ([]model.Drive, error)
}

type driveRepo struct {
	db *gorm.DB
}

// NewDriveRepository создаёт реализацию репозитория для Drive.
func NewDriveRepository(db *gorm.DB) DriveRepository {
	return &driveRepo{db: db}
}

func (r *driveRepo) Register(ctx context.Context, userID int64, clientID string, infos []model.DriveInfo) ([]model.Drive, error) {
	out := make([]model.Drive, 0, len(infos))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()
		for _, info := range infos {
			d, err := upsertDrive(tx, userID, clientID, info, now)
			if err != nil {
				return fmt.Errorf("register %q: %w", info.UniqueIdentifier, err)
			}
			out = append(out, *d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// upsertDrive выполняет upsert носителя по (user_id, unique_identifier) и точки монтирования
// по (drive_id, client_id). Метка тома и провайдер перезаписываются, только если переданы.
func upsertDrive(tx *gorm.DB, userID int64, clientID string, info model.DriveInfo, now time.Time) (*model.Drive, error) {
	d := model.Drive{
		ID:               uuid.NewString(),
		UserID:           userID,
		UniqueIdentifier: info.UniqueIdentifier,
		MountPoint:       info.MountPoint,
		VolumeLabel:      nullable(info.VolumeLabel),
		DriveType:        info.DriveType,
		CloudProvider:    nullable(info.CloudProvider),
		IsAvailable:      true,
		LastSeenAt:       now,
		CreatedAt:        now,
	}
	err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "unique_identifier"}},
		DoUpdates: clause.Assignments(map[string]any{
			"mount_point":    gorm.Expr("excluded.mount_point"),
			"drive_type":     gorm.Expr("excluded.drive_type"),
			"volume_label":   gorm.Expr("COALESCE(excluded.volume_label, drives.volume_label)"),
			"cloud_provider": gorm.Expr("COALESCE(excluded.cloud_provider, drives.cloud_provider)"),
			"is_available":   true,
			"last_seen_at":   now,
		}),
	}).Create(&d).Error
	if err != nil {
		return nil, err
	}

	// после upsert строка точно существует; id мог остаться от прежней регистрации
	var stored model.Drive
	if err := tx.Where("user_id = ? AND unique_identifier = ?", userID, info.UniqueIdentifier).
		First(&stored).Error; err != nil {
		return nil, err
	}

	m := model.ClientMount{
		ID:          uuid.NewString(),
		DriveID:     stored.ID,
		ClientID:    clientID,
		MountPoint:  info.MountPoint,
		LastSeenAt:  now,
		IsAvailable: true,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "drive_id"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mount_point", "last_seen_at", "is_available"}),
	}).Create(&m).Error
	if err != nil {
		return nil, err
	}

	if err := recomputeAvailability(tx, stored.ID); err != nil {
		return nil, err
	}
	return loadDrive(tx, "id = ?", stored.ID)
}

// recomputeAvailability: drives.is_available = OR по всем точкам монтирования.
func recomputeAvailability(tx *gorm.DB, driveIDs ...string) error {
	return tx.Model(&model.Drive{}).
		Where("id IN ?", driveIDs).
		Update("is_available", gorm.Expr(
			"EXISTS (SELECT 1 FROM drive_client_mounts m WHERE m.drive_id = drives.id AND m.is_available = ?)", true,
		)).Error
}

func (r *driveRepo) SetMountAvailability(ctx context.Context, userID int64, identifier, clientID string, available bool) (*model.Drive, error) {
	var out *model.Drive
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()
		var d model.Drive
		if err := tx.Where("user_id = ? AND unique_identifier = ?", userID, identifier).First(&d).Error; err != nil {
			return err
		}

		res := tx.Model(&model.ClientMount{}).
			Where("drive_id = ? AND client_id = ?", d.ID, clientID).
			Updates(map[string]any{"is_available": available, "last_seen_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("mount of client %q: %w", clientID, gorm.ErrRecordNotFound)
		}

		if err := tx.Model(&model.Drive{}).Where("id = ?", d.ID).Update("last_seen_at", now).Error; err != nil {
			return err
		}
		if err := recomputeAvailability(tx, d.ID); err != nil {
			return err
		}
		loaded, err := loadDrive(tx, "id = ?", d.ID)
		if err != nil {
			return err
		}
		out = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *driveRepo) SetClientOffline(ctx context.Context, userID int64, clientID string) (int64, error) {
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var driveIDs []string
		if err := tx.Table("drive_client_mounts AS m").
			Joins("JOIN drives d ON d.id = m.drive_id").
			Where("d.user_id = ? AND m.client_id = ? AND m.is_available = ?", userID, clientID, true).
			Pluck("m.drive_id", &driveIDs).Error; err != nil {
			return err
		}
		if len(driveIDs) == 0 {
			return nil
		}

		res := tx.Model(&model.ClientMount{}).
			Where("client_id = ? AND drive_id IN ?", clientID, driveIDs).
			Updates(map[string]any{"is_available": false, "last_seen_at": tx.NowFunc()})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected
		return recomputeAvailability(tx, driveIDs...)
	})
	return changed, err
}

func (r *driveRepo) GetByIdentifier(ctx context.Context, userID int64, identifier string) (*model.Drive, error) {
	return loadDrive(r.db.WithContext(ctx), "user_id = ? AND unique_identifier = ?", userID, identifier)
}

func (r *driveRepo) GetByID(ctx context.Context, userID int64, id string) (*model.Drive, error) {
	return loadDrive(r.db.WithContext(ctx), "user_id = ? AND id = ?", userID, id)
}

func (r *driveRepo) ListAll(ctx context.Context, userID int64) ([]model.Drive, error) {
	return listDrives(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *driveRepo) ListByClient(ctx context.Context, userID int64, clientID string) ([]model.Drive, error) {
	db := r.db.WithContext(ctx)
	mounted := db.Model(&model.ClientMount{}).Select("drive_id").Where("client_id = ?", clientID)
	return listDrives(db.Where("user_id = ? AND id IN (?)", userID, mounted))
}

func (r *driveRepo) ListCloud(ctx context.Context, userID int64, provider string) ([]model.Drive, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND drive_type = ?", userID, model.DriveTypeCloud)
	if provider != "" {
		q = q.Where("LOWER(cloud_provider) = LOWER(?)", provider)
	}
	return listDrives(q)
}

func preloadMounts(db *gorm.DB) *gorm.DB {
	return db.Order("client_id")
}

func loadDrive(db *gorm.DB, query string, args ...any) (*model.Drive, error) {
	var d model.Drive
	if err := db.Preload("Mounts", preloadMounts).Where(query, args...).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func listDrives(q *gorm.DB) ([]model.Drive, error) {
	var drives []model.Drive
	if err := q.Preload("Mounts", preloadMounts).Order("created_at, id").Find(&drives).Error; err != nil {
		return nil, err
	}
	return drives, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
