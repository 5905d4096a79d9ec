package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary. Every domain row below carries its id and
// no query or mutation crosses it.
type Organization struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	Slug      string     `gorm:"column:slug;not null;uniqueIndex"`
	Email     *string    `gorm:"column:email"`
	Phone     *string    `gorm:"column:phone"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}
