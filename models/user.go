package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"type:varchar(254)" json:"email"`
	PasswordHash string         `gorm:"type:varchar(128)" json:"-"`
	FirstName    string         `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string         `gorm:"type:varchar(150)" json:"last_name"`
	IsSuperuser  bool           `gorm:"default:false" json:"is_superuser"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

type Group struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(150);not null;uniqueIndex" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Group) TableName() string { return "groups" }

// UserGroup is the explicit membership edge; soft-deleting a row ends the
// membership without losing history.
type UserGroup struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_group,unique,priority:1" json:"user_id"`
	GroupID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_group,unique,priority:2" json:"group_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

func (UserGroup) TableName() string { return "users_groups" }

type Role struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(150);not null;uniqueIndex" json:"name"`
	Permissions []Permission   `gorm:"many2many:roles_permissions" json:"permissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Role) TableName() string { return "roles" }

// Permission codenames are drawn from the closed scope set in services.
type Permission struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Codename string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"codename"`
}

func (Permission) TableName() string { return "permissions" }

type UserRole struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_role,unique,priority:1" json:"user_id"`
	RoleID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_role,unique,priority:2" json:"role_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

func (UserRole) TableName() string { return "users_roles" }

// GroupRole lets a group carry a role; members inherit its permissions.
type GroupRole struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_group_role,unique,priority:1" json:"group_id"`
	RoleID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_group_role,unique,priority:2" json:"role_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
}

func (GroupRole) TableName() string { return "groups_roles" }
