package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Типы операций, после которых учитывается использование папки.
const (
	OperationMove = "move"
	OperationCopy = "copy"
)

// Destination — выученная папка назначения для категории файлов.
// Удаление мягкое: IsActive=false, история и UsageCount сохраняются.
type Destination struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	UserID      int64      `gorm:"not null;uniqueIndex:idx_destinations_user_path,priority:1" json:"user_id"`
	Path        string     `gorm:"not null;uniqueIndex:idx_destinations_user_path,priority:2" json:"path"`
	Category    string     `gorm:"not null" json:"category"`
	CategoryKey string     `gorm:"not null;index" json:"-"` // см. CategoryKey()
	DriveID     *string    `gorm:"index" json:"drive_id,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	UsageCount  int64      `gorm:"not null" json:"usage_count"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
}

func (Destination) TableName() string { return "destinations" }

// BeforeSave заполняет CategoryKey при каждой вставке и upsert.
func (d *Destination) BeforeSave(*gorm.DB) error {
	d.CategoryKey = CategoryKey(d.Category)
	return nil
}

// CategoryKey сворачивает регистр категории: "Документы" и "документы" дают один ключ.
func CategoryKey(category string) string {
	return cases.Fold().String(strings.TrimSpace(category))
}

// UsageEvent — одно зафиксированное использование папки назначения.
type UsageEvent struct {
	ID            string    `gorm:"primaryKey;type:text" json:"id"`
	DestinationID string    `gorm:"not null;index" json:"destination_id" validate:"required"`
	UsedAt        time.Time `gorm:"not null" json:"used_at"`
	FileCount     int       `gorm:"not null" json:"file_count" validate:"min=0"`
	OperationType string    `gorm:"not null" json:"operation_type" validate:"oneof=move copy"`
}

func (UsageEvent) TableName() string { return "destination_usage" }

// CompletedOperation — завершённая файловая операция, которую сообщает движок исполнения.
type CompletedOperation struct {
	Type string `json:"type"`
	Dest string `json:"dest"`
}

// CategoryStats — агрегаты по одной категории.
type CategoryStats struct {
	Category         string     `json:"category"`
	DestinationCount int64      `json:"destination_count"`
	TotalUsage       int64      `json:"total_usage"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
}

// OverallStats — общие агрегаты по всем активным папкам пользователя.
type OverallStats struct {
	TotalDestinations int64      `json:"total_destinations"`
	TotalUsage        int64      `json:"total_usage"`
	TotalFiles        int64      `json:"total_files"`
	Categories        int64      `json:"categories"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
}

// UsageAnalytics — сводка использования для UI и контекста ИИ.
type UsageAnalytics struct {
	Overall    OverallStats    `json:"overall"`
	ByCategory []CategoryStats `json:"by_category"`
	MostUsed   []Destination   `json:"most_used"`
}
