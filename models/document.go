package models

import (
	"time"

	"github.com/google/uuid"
)

// OCR status values are advanced by the OCR worker, never by the core.
const (
	OCRStatusUnknown   = "unknown"
	OCRStatusReceived  = "received"
	OCRStatusSucceeded = "succeeded"
	OCRStatusFailed    = "failed"
)

// Preview status state machine: NULL -> PENDING -> READY | FAILED.
const (
	PreviewStatusPending = "PENDING"
	PreviewStatusReady   = "READY"
	PreviewStatusFailed  = "FAILED"
)

// Document extends a Node row with document-only columns. NodeID doubles
// as the primary key so a document shares its id with its node.
type Document struct {
	NodeID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OCR            bool       `gorm:"default:false" json:"ocr"`
	OCRStatus      string     `gorm:"type:varchar(16);default:'unknown'" json:"ocr_status"`
	PreviewStatus  *string    `gorm:"type:varchar(16)" json:"preview_status,omitempty"`
	PreviewError   *string    `gorm:"type:text" json:"preview_error,omitempty"`
	DocumentTypeID *uuid.UUID `gorm:"type:uuid;index" json:"document_type_id,omitempty"`
}

func (Document) TableName() string { return "documents" }

// DocumentVersion rows are append-only; page-management operations create
// new versions instead of mutating old ones.
type DocumentVersion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_ver,unique,priority:1" json:"document_id"`
	Number     int       `gorm:"not null;index:idx_doc_ver,unique,priority:2" json:"number"`
	FileName   *string   `gorm:"type:varchar(1024)" json:"file_name,omitempty"`
	Lang       string    `gorm:"type:varchar(8)" json:"lang"`
	Text       *string   `gorm:"type:text" json:"-"`
	Size       int64     `gorm:"not null;default:0" json:"size"`
	PageCount  int       `gorm:"not null;default:0" json:"page_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DocumentVersion) TableName() string { return "document_versions" }

// Page numbering is 1-based and dense within a version.
type Page struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentVersionID uuid.UUID `gorm:"type:uuid;not null;index:idx_ver_page,unique,priority:1" json:"document_version_id"`
	Number            int       `gorm:"not null;index:idx_ver_page,unique,priority:2" json:"number"`
	Rotation          int       `gorm:"not null;default:0" json:"rotation"`
	Text              *string   `gorm:"type:text" json:"-"`
	PreviewStatusSM   *string   `gorm:"type:varchar(16)" json:"preview_status_sm,omitempty"`
	PreviewStatusMD   *string   `gorm:"type:varchar(16)" json:"preview_status_md,omitempty"`
	PreviewStatusLG   *string   `gorm:"type:varchar(16)" json:"preview_status_lg,omitempty"`
	PreviewStatusXL   *string   `gorm:"type:varchar(16)" json:"preview_status_xl,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (Page) TableName() string { return "pages" }
