package model

import "time"

// Типы носителей, которые сообщают клиенты.
const (
	DriveTypeInternal = "internal"
	DriveTypeUSB      = "usb"
	DriveTypeCloud    = "cloud"
	DriveTypeNetwork  = "network"
)

// Drive — физический или облачный носитель пользователя.
// Один и тот же носитель, подключённый к разным машинам, хранится одной строкой:
// идентичность определяется парой (user_id, unique_identifier).
type Drive struct {
	ID               string  `gorm:"primaryKey;type:text" json:"id"`
	UserID           int64   `gorm:"not null;uniqueIndex:idx_drives_user_identifier,priority:1" json:"user_id"`
	UniqueIdentifier string  `gorm:"not null;uniqueIndex:idx_drives_user_identifier,priority:2" json:"unique_identifier"`
	MountPoint       string  `gorm:"not null" json:"mount_point"` // последняя известная точка монтирования
	VolumeLabel      *string `json:"volume_label,omitempty"`
	DriveType        string  `gorm:"not null" json:"drive_type"`
	CloudProvider    *string `json:"cloud_provider,omitempty"`

	// IsAvailable — производное значение: OR по IsAvailable всех точек монтирования.
	IsAvailable bool `gorm:"not null" json:"is_available"`

	LastSeenAt time.Time `gorm:"not null" json:"last_seen_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`

	Mounts []ClientMount `gorm:"foreignKey:DriveID" json:"client_mounts"`
}

func (Drive) TableName() string { return "drives" }

// MountFor возвращает точку монтирования носителя на указанном клиенте.
func (d *Drive) MountFor(clientID string) (*ClientMount, bool) {
	for i := range d.Mounts {
		if d.Mounts[i].ClientID == clientID {
			return &d.Mounts[i], true
		}
	}
	return nil, false
}

// ClientMount — где носитель смонтирован на конкретной клиентской машине.
type ClientMount struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	DriveID     string    `gorm:"not null;uniqueIndex:idx_mounts_drive_client,priority:1" json:"drive_id"`
	ClientID    string    `gorm:"not null;uniqueIndex:idx_mounts_drive_client,priority:2" json:"client_id"`
	MountPoint  string    `gorm:"not null" json:"mount_point"`
	LastSeenAt  time.Time `gorm:"not null" json:"last_seen_at"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
}

func (ClientMount) TableName() string { return "drive_client_mounts" }

// DriveInfo — то, что клиент сообщает о подключённом носителе.
type DriveInfo struct {
	UniqueIdentifier string `json:"unique_identifier" validate:"required"`
	MountPoint       string `json:"mount_point" validate:"required"`
	DriveType        string `json:"drive_type" validate:"required,oneof=internal usb cloud network"`
	VolumeLabel      string `json:"volume_label,omitempty"`
	CloudProvider    string `json:"cloud_provider,omitempty"`
}
