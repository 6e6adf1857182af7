package service

import (
	"DriveKeeper/internal/model"
	"DriveKeeper/internal/repo"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	mostUsedLimit       = 10
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// DestinationMemory помнит, в какие папки пользователь раскладывает файлы каждой категории,
// считает их использование и подхватывает новые папки из завершённых операций.
type DestinationMemory struct {
	repo   repo.DestinationRepository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewDestinationMemory(r repo.DestinationRepository, logger *zap.SugaredLogger) *DestinationMemory {
	return &DestinationMemory{
		repo:   r,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AddDestination запоминает папку. Повторное добавление активной папки ничего не меняет,
// неактивная реактивируется с тем же id и накопленным usage_count.
// Пустая категория выводится из пути. Чужой или несуществующий driveID даёт ErrNotFound.
func (s *DestinationMemory) AddDestination(ctx context.Context, userID int64, path, category string, driveID *string) (*model.Destination, error) {
	d, _, err := s.add(ctx, "AddDestination", userID, path, category, driveID)
	return d, err
}

func (s *DestinationMemory) add(ctx context.Context, op string, userID int64, path, category string, driveID *string) (*model.Destination, bool, error) {
	kv := []any{"user_id", userID, "path", path}
	if err := requireUser(userID); err != nil {
		return nil, false, logFailure(s.logger, op, err, kv...)
	}
	p, err := NormalizePath(path)
	if err != nil {
		return nil, false, logFailure(s.logger, op, err, kv...)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = ExtractCategoryFromPath(p)
	}
	if driveID != nil {
		if id := strings.TrimSpace(*driveID); id != "" {
			driveID = &id
		} else {
			driveID = nil
		}
	}

	candidate := &model.Destination{
		ID:        uuid.NewString(),
		UserID:    userID,
		Path:      p,
		Category:  category,
		DriveID:   driveID,
		CreatedAt: s.now(),
		IsActive:  true,
	}
	stored, created, err := s.repo.Upsert(ctx, candidate)
	if err != nil {
		return nil, false, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return stored, created, nil
}

// RemoveDestination — мягкое удаление. false, если папки нет или она принадлежит другому.
func (s *DestinationMemory) RemoveDestination(ctx context.Context, userID int64, destinationID string) (bool, error) {
	const op = "RemoveDestination"
	kv := []any{"user_id", userID, "destination_id", destinationID}
	if err := requireUser(userID); err != nil {
		return false, logFailure(s.logger, op, err, kv...)
	}
	ok, err := s.repo.Deactivate(ctx, userID, destinationID)
	if err != nil {
		return false, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return ok, nil
}

// GetDestination возвращает папку пользователя по id, в том числе неактивную.
func (s *DestinationMemory) GetDestination(ctx context.Context, userID int64, destinationID string) (*model.Destination, error) {
	const op = "GetDestination"
	kv := []any{"user_id", userID, "destination_id", destinationID}
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}
	d, err := s.repo.GetByID(ctx, userID, destinationID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return d, nil
}

// GetDestinations возвращает активные папки: сначала часто используемые, затем недавние.
func (s *DestinationMemory) GetDestinations(ctx context.Context, userID int64) ([]model.Destination, error) {
	const op = "GetDestinations"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	list, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID)
	}
	return list, nil
}

// GetDestinationsByCategory — то же, но для одной категории без учёта регистра.
func (s *DestinationMemory) GetDestinationsByCategory(ctx context.Context, userID int64, category string) ([]model.Destination, error) {
	const op = "GetDestinationsByCategory"
	category = strings.TrimSpace(category)
	kv := []any{"user_id", userID, "category", category}
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}
	if category == "" {
		return nil, logFailure(s.logger, op, validationErr("category is required"), kv...)
	}
	list, err := s.repo.ListActiveByCategory(ctx, userID, category)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return list, nil
}

// GetDestinationsForClient — папки, которые клиент может использовать прямо сейчас:
// без привязки к носителю или на носителе, доступном на этом клиенте.
func (s *DestinationMemory) GetDestinationsForClient(ctx context.Context, userID int64, clientID string) ([]model.Destination, error) {
	const op = "GetDestinationsForClient"
	clientID = strings.TrimSpace(clientID)
	kv := []any{"user_id", userID, "client_id", clientID}
	if err := requireIdentity(userID, clientID); err != nil {
		return nil, logFailure(s.logger, op, err, kv...)
	}
	list, err := s.repo.ListActiveForClient(ctx, userID, clientID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return list, nil
}

// UpdateUsage фиксирует одно использование папки: usage_count+1 (не file_count),
// last_used_at и одно событие в destination_usage.
func (s *DestinationMemory) UpdateUsage(ctx context.Context, destinationID string, fileCount int, operationType string) (bool, error) {
	const op = "UpdateUsage"
	destinationID = strings.TrimSpace(destinationID)
	operationType = strings.ToLower(strings.TrimSpace(operationType))
	kv := []any{"destination_id", destinationID, "file_count", fileCount, "operation_type", operationType}

	ev := &model.UsageEvent{
		ID:            uuid.NewString(),
		DestinationID: destinationID,
		UsedAt:        s.now(),
		FileCount:     fileCount,
		OperationType: operationType,
	}
	if err := validateStruct(ev); err != nil {
		return false, logFailure(s.logger, op, err, kv...)
	}
	if err := s.repo.IncrementUsage(ctx, ev); err != nil {
		return false, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return true, nil
}

// GetUsageHistory возвращает последние события использования папки, новые первыми.
func (s *DestinationMemory) GetUsageHistory(ctx context.Context, userID int64, destinationID string, limit int) ([]model.UsageEvent, error) {
	const op = "GetUsageHistory"
	kv := []any{"user_id", userID, "destination_id", destinationID}
	if _, err := s.GetDestination(ctx, userID, destinationID); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	events, err := s.repo.ListUsage(ctx, userID, destinationID, limit)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), kv...)
	}
	return events, nil
}

// AutoCaptureDestinations запоминает родительские папки завершённых move/copy операций.
// Уже известные активные папки пропускаются, поэтому повторный вызов с теми же
// операциями ничего не возвращает. Возвращаются только созданные или реактивированные папки.
// Если часть папок сохранить не удалось, возвращаются сохранённые и ошибка ErrStorage.
func (s *DestinationMemory) AutoCaptureDestinations(ctx context.Context, userID int64, ops []model.CompletedOperation) ([]model.Destination, error) {
	const op = "AutoCaptureDestinations"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}

	folders := collectFolders(ops)
	captured := []model.Destination{}
	if len(folders) == 0 {
		return captured, nil
	}

	existing, err := s.repo.ListByPaths(ctx, userID, folders)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID, "count", len(folders))
	}
	known := make(map[string]model.Destination, len(existing))
	for _, d := range existing {
		known[d.Path] = d
	}

	failed := 0
	for _, folder := range folders {
		prev, seen := known[folder]
		if seen && prev.IsActive {
			continue
		}
		// Носитель не определяется: в операции нет client_id, а точки монтирования
		// у каждого клиента свои.
		d, created, err := s.add(ctx, op, userID, folder, ExtractCategoryFromPath(folder), nil)
		if err != nil {
			// уже залогировано в add; остальные папки всё равно пробуем
			failed++
			continue
		}
		if created || seen {
			captured = append(captured, *d)
		}
	}
	if len(captured) > 0 {
		s.logger.Infow("AutoCaptureDestinations: captured", "user_id", userID, "count", len(captured))
	}
	if failed > 0 {
		return captured, fmt.Errorf("%s: %w: %d of %d folders not saved", op, ErrStorage, failed, len(folders))
	}
	return captured, nil
}

// collectFolders извлекает уникальные родительские папки move/copy операций в порядке появления.
func collectFolders(ops []model.CompletedOperation) []string {
	seen := make(map[string]struct{}, len(ops))
	folders := make([]string, 0, len(ops))
	for _, o := range ops {
		t := strings.ToLower(strings.TrimSpace(o.Type))
		if t != model.OperationMove && t != model.OperationCopy {
			continue
		}
		dest, err := NormalizePath(o.Dest)
		if err != nil {
			continue
		}
		folder := ParentFolder(dest)
		if isRootPath(folder) {
			continue
		}
		if _, ok := seen[folder]; ok {
			continue
		}
		seen[folder] = struct{}{}
		folders = append(folders, folder)
	}
	return folders
}

// GetUsageAnalytics собирает сводку по активным папкам пользователя. Только чтение.
func (s *DestinationMemory) GetUsageAnalytics(ctx context.Context, userID int64) (*model.UsageAnalytics, error) {
	const op = "GetUsageAnalytics"
	if err := requireUser(userID); err != nil {
		return nil, logFailure(s.logger, op, err, "user_id", userID)
	}
	list, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID)
	}
	files, err := s.repo.TotalFiles(ctx, userID)
	if err != nil {
		return nil, logFailure(s.logger, op, storageErr(op, err), "user_id", userID)
	}

	a := &model.UsageAnalytics{
		ByCategory: []model.CategoryStats{},
		MostUsed:   list[:min(len(list), mostUsedLimit)],
	}
	a.Overall.TotalDestinations = int64(len(list))
	a.Overall.TotalFiles = files

	byKey := map[string]int{}
	for _, d := range list {
		a.Overall.TotalUsage += d.UsageCount
		a.Overall.LastUsedAt = laterOf(a.Overall.LastUsedAt, d.LastUsedAt)

		// список уже отсортирован по использованию: имя категории берём у самой используемой папки
		key := model.CategoryKey(d.Category)
		i, ok := byKey[key]
		if !ok {
			i = len(a.ByCategory)
			byKey[key] = i
			a.ByCategory = append(a.ByCategory, model.CategoryStats{Category: d.Category})
		}
		cs := &a.ByCategory[i]
		cs.DestinationCount++
		cs.TotalUsage += d.UsageCount
		cs.LastUsedAt = laterOf(cs.LastUsedAt, d.LastUsedAt)
	}
	a.Overall.Categories = int64(len(a.ByCategory))

	sort.SliceStable(a.ByCategory, func(i, j int) bool {
		if a.ByCategory[i].TotalUsage != a.ByCategory[j].TotalUsage {
			return a.ByCategory[i].TotalUsage > a.ByCategory[j].TotalUsage
		}
		return model.CategoryKey(a.ByCategory[i].Category) < model.CategoryKey(a.ByCategory[j].Category)
	})
	return a, nil
}

func laterOf(a, b *time.Time) *time.Time {
	if b == nil || (a != nil && !b.After(*a)) {
		return a
	}
	return b
}
