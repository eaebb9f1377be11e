package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CTypeFolder   = "folder"
	CTypeDocument = "document"
)

// Node is the polymorphic head record shared by folders and documents.
// Document-specific columns live on the Document extension row keyed by
// the same id.
type Node struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string         `gorm:"type:varchar(200);not null;index" json:"title"`
	CType      string         `gorm:"column:ctype;type:varchar(20);not null;index" json:"ctype"`
	Lang       string         `gorm:"type:varchar(8)" json:"lang"`
	ParentID   *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id"`
	Tags       []Tag          `gorm:"many2many:nodes_tags" json:"tags,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	ArchivedAt *time.Time     `json:"archived_at,omitempty"`
	CreatedBy  *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy  *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	DeletedBy  *uuid.UUID     `gorm:"type:uuid" json:"-"`
	ArchivedBy *uuid.UUID     `gorm:"type:uuid" json:"-"`
}

func (Node) TableName() string { return "nodes" }

// NodeLite is the (id, title, ctype) projection used by breadcrumb and
// descendant queries.
type NodeLite struct {
	ID     uuid.UUID  `json:"id"`
	Title  string     `json:"title"`
	CType  string     `json:"ctype"`
	Parent *uuid.UUID `json:"-"`
}

// Breadcrumb root kinds reported to viewers.
const (
	BreadcrumbRootHome   = "HOME"
	BreadcrumbRootInbox  = "INBOX"
	BreadcrumbRootShared = "SHARED"
)

type Breadcrumb struct {
	Root string     `json:"root"`
	Path []NodeLite `json:"path"`
}
