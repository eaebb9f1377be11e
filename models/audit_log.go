package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditOpInsert   = "INSERT"
	AuditOpUpdate   = "UPDATE"
	AuditOpDelete   = "DELETE"
	AuditOpTruncate = "TRUNCATE"
)

// AuditLog rows are append-only; no updates, no deletes.
type AuditLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Table         string     `gorm:"column:table_name;type:varchar(64);not null;index" json:"table_name"`
	RecordID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"record_id"`
	Operation     string     `gorm:"type:varchar(10);not null" json:"operation"`
	Timestamp     time.Time  `gorm:"not null;index" json:"timestamp"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Username      *string    `gorm:"type:varchar(150)" json:"username,omitempty"`
	OldValues     *string    `gorm:"type:jsonb" json:"old_values,omitempty"`
	NewValues     *string    `gorm:"type:jsonb" json:"new_values,omitempty"`
	ChangedFields *string    `gorm:"type:jsonb" json:"changed_fields,omitempty"`
	Reason        *string    `gorm:"type:text" json:"reason,omitempty"`
}

func (AuditLog) TableName() string { return "audit_log" }
