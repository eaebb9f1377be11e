package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OwnerTypeUser  = "user"
	OwnerTypeGroup = "group"
)

// Ownership is the polymorphic owner edge. For nodes exactly one row
// exists at the root of each owned subtree; descendants inherit it.
type Ownership struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResourceType string    `gorm:"type:varchar(32);not null;index:idx_ownership_resource,unique,priority:1" json:"resource_type"`
	ResourceID   uuid.UUID `gorm:"type:uuid;not null;index:idx_ownership_resource,unique,priority:2" json:"resource_id"`
	OwnerType    string    `gorm:"type:varchar(8);not null;index" json:"owner_type"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Ownership) TableName() string { return "ownerships" }

const (
	SpecialFolderHome  = "home"
	SpecialFolderInbox = "inbox"
)

// SpecialFolder resolves a principal's home/inbox root folders.
type SpecialFolder struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerType  string    `gorm:"type:varchar(8);not null;index:idx_special_folder,unique,priority:1" json:"owner_type"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index:idx_special_folder,unique,priority:2" json:"owner_id"`
	FolderType string    `gorm:"type:varchar(8);not null;index:idx_special_folder,unique,priority:3" json:"folder_type"`
	FolderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"folder_id"`
}

func (SpecialFolder) TableName() string { return "special_folders" }

// SharedNode grants a role over a node subtree to exactly one of a user
// or a group.
type SharedNode struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	NodeID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"node_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index" json:"group_id,omitempty"`
	RoleID    uuid.UUID  `gorm:"type:uuid;not null" json:"role_id"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null" json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func (SharedNode) TableName() string { return "shared_nodes" }
