package repo

import (
	"DriveKeeper/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DestinationOrder — единый порядок выдачи папок: чаще используемые, затем недавние.
// Неиспользованные (last_used_at IS NULL) идут после использованных на любом диалекте.
const DestinationOrder = "usage_count DESC, last_used_at IS NULL, last_used_at DESC, created_at DESC, id"

// DestinationRepository — доступ к destinations и destination_usage.
type DestinationRepository interface {
	// Upsert добавляет папку или реактивирует существующую по (user_id, path) одним запросом.
	// Активная строка не меняется. created=true, если строка вставлена этим вызовом.
	// Носитель d.DriveID должен принадлежать тому же пользователю, иначе gorm.ErrRecordNotFound.
	Upsert(ctx context.Context, d *model.Destination) (stored *model.Destination, created bool, err error)

	// Deactivate выполняет мягкое удаление. false, если строки нет или она чужая.
	Deactivate(ctx context.Context, userID int64, id string) (bool, error)

	// IncrementUsage атомарно увеличивает usage_count на 1 и пишет событие использования.
	IncrementUsage(ctx context.Context, ev *model.UsageEvent) error

	GetByID(ctx context.Context, userID int64, id string) (*model.Destination, error)
	ListActive(ctx context.Context, userID int64) ([]model.Destination, error)
	ListActiveByCategory(ctx context.Context, userID int64, category string) ([]model.Destination, error)
	ListActiveForClient(ctx context.Context, userID int64, clientID string) ([]model.Destination, error)
	ListByPaths(ctx context.Context, userID int64, paths []string) ([]model.Destination, error)
	ListUsage(ctx context.Context, userID int64, destinationID string, limit int) ([]model.UsageEvent, error)
	TotalFiles(ctx context.Context, userID int64) (int64, error)
}

type destinationRepo struct {
	db *gorm.DB
}

// NewDestinationRepository создаёт реализацию репозитория для Destination.
func NewDestinationRepository(db *gorm.DB) DestinationRepository {
	return &destinationRepo{db: db}
}

func (r *destinationRepo) Upsert(ctx context.Context, d *model.Destination) (*model.Destination, bool, error) {
	var stored model.Destination
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if d.DriveID != nil {
			var n int64
			err := tx.Model(&model.Drive{}).Where("id = ? AND user_id = ?", *d.DriveID, d.UserID).Count(&n).Error
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("drive %q: %w", *d.DriveID, gorm.ErrRecordNotFound)
			}
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]any{
				"category":     gorm.Expr("CASE WHEN destinations.is_active THEN destinations.category ELSE excluded.category END"),
				"category_key": gorm.Expr("CASE WHEN destinations.is_active THEN destinations.category_key ELSE excluded.category_key END"),
				"drive_id":     gorm.Expr("CASE WHEN destinations.is_active THEN destinations.drive_id ELSE excluded.drive_id END"),
				"is_active":    true,
			}),
		}).Create(d).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND path = ?", d.UserID, d.Path).First(&stored).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, stored.ID == d.ID, nil
}

func (r *destinationRepo) Deactivate(ctx context.Context, userID int64, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Destination{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *destinationRepo) IncrementUsage(ctx context.Context, ev *model.UsageEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Destination{}).
			Where("id = ?", ev.DestinationID).
			Updates(map[string]any{
				"usage_count":  gorm.Expr("usage_count + ?", 1),
				"last_used_at": ev.UsedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("destination %q: %w", ev.DestinationID, gorm.ErrRecordNotFound)
		}
		return tx.Create(ev).Error
	})
}

func (r *destinationRepo) GetByID(ctx context.Context, userID int64, id string) (*model.Destination, error) {
	var d model.Destination
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *destinationRepo) active(ctx context.Context, userID int64) *gorm.DB {
	return r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true)
}

func (r *destinationRepo) ListActive(ctx context.Context, userID int64) ([]model.Destination, error) {
	return listDestinations(r.active(ctx, userID))
}

func (r *destinationRepo) ListActiveByCategory(ctx context.Context, userID int64, category string) ([]model.Destination, error) {
	return listDestinations(r.active(ctx, userID).Where("category_key = ?", model.CategoryKey(category)))
}

func (r *destinationRepo) ListActiveForClient(ctx context.Context, userID int64, clientID string) ([]model.Destination, error) {
	available := r.db.WithContext(ctx).Model(&model.ClientMount{}).
		Select("drive_id").
		Where("client_id = ? AND is_available = ?", clientID, true)
	return listDestinations(r.active(ctx, userID).Where("(drive_id IS NULL OR drive_id IN (?))", available))
}

func (r *destinationRepo) ListByPaths(ctx context.Context, userID int64, paths []string) ([]model.Destination, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	var out []model.Destination
	err := r.db.WithContext(ctx).Where("user_id = ? AND path IN ?", userID, paths).Find(&out).Error
	return out, err
}

func (r *destinationRepo) ListUsage(ctx context.Context, userID int64, destinationID string, limit int) ([]model.UsageEvent, error) {
	db := r.db.WithContext(ctx)
	owned := db.Model(&model.Destination{}).Select("id").Where("user_id = ?", userID)
	var out []model.UsageEvent
	err := db.Where("destination_id = ? AND destination_id IN (?)", destinationID, owned).
		Order("used_at DESC, id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TotalFiles — сумма file_count по событиям активных папок пользователя.
func (r *destinationRepo) TotalFiles(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Table("destination_usage AS u").
		Select("COALESCE(SUM(u.file_count), 0)").
		Joins("JOIN destinations d ON d.id = u.destination_id").
		Where("d.user_id = ? AND d.is_active = ?", userID, true).
		Row().Scan(&total)
	return total, err
}

func listDestinations(q *gorm.DB) ([]model.Destination, error) {
	var out []model.Destination
	if err := q.Order(DestinationOrder).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
