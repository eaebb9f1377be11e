package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tag struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null;index:idx_tag_owner_name,unique,priority:3" json:"name"`
	BgColor   string         `gorm:"type:varchar(16);default:'#c41fff'" json:"bg_color"`
	FgColor   string         `gorm:"type:varchar(16);default:'#ffffff'" json:"fg_color"`
	Pinned    bool           `gorm:"default:false" json:"pinned"`
	OwnerType string         `gorm:"type:varchar(8);not null;index:idx_tag_owner_name,unique,priority:1" json:"owner_type"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_tag_owner_name,unique,priority:2" json:"owner_id"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Tag) TableName() string { return "tags" }
