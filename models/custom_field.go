package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Custom-field type handler names. Each maps to one handler in
// services/cf_handlers.go.
const (
	CFTypeText        = "text"
	CFTypeInteger     = "integer"
	CFTypeNumeric     = "numeric"
	CFTypeDate        = "date"
	CFTypeDateTime    = "datetime"
	CFTypeBoolean     = "boolean"
	CFTypeMonetary    = "monetary"
	CFTypeYearMonth   = "yearmonth"
	CFTypeSelect      = "select"
	CFTypeMultiselect = "multiselect"
)

type CustomField struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null;index:idx_cf_owner_name,unique,priority:3" json:"name"`
	TypeHandler string         `gorm:"type:varchar(16);not null" json:"type_handler"`
	Config      *string        `gorm:"type:jsonb" json:"config,omitempty"`
	OwnerType   string         `gorm:"type:varchar(8);not null;index:idx_cf_owner_name,unique,priority:1" json:"owner_type"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_cf_owner_name,unique,priority:2" json:"owner_id"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy   *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CustomField) TableName() string { return "custom_fields" }

// CustomFieldValue keeps exactly one value_* column populated, chosen by
// the field's type handler.
type CustomFieldValue struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_cfv_doc_field,unique,priority:1" json:"document_id"`
	FieldID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_cfv_doc_field,unique,priority:2" json:"field_id"`
	ValueText     *string    `gorm:"type:text" json:"value_text,omitempty"`
	ValueNumeric  *float64   `gorm:"type:numeric" json:"value_numeric,omitempty"`
	ValueDate     *time.Time `gorm:"type:date" json:"value_date,omitempty"`
	ValueDateTime *time.Time `json:"value_datetime,omitempty"`
	ValueBoolean  *bool      `json:"value_boolean,omitempty"`
	ValueMonetary *float64   `gorm:"type:numeric" json:"value_monetary,omitempty"`
	ValueYearMonth *float64  `gorm:"column:value_yearmonth;type:numeric" json:"value_yearmonth,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (CustomFieldValue) TableName() string { return "custom_field_values" }

type DocumentType struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null;index:idx_dt_owner_name,unique,priority:3" json:"name"`
	PathTemplate *string        `gorm:"type:text" json:"path_template,omitempty"`
	OwnerType    string         `gorm:"type:varchar(8);not null;index:idx_dt_owner_name,unique,priority:1" json:"owner_type"`
	OwnerID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_dt_owner_name,unique,priority:2" json:"owner_id"`
	CustomFields []CustomField  `gorm:"many2many:document_types_custom_fields" json:"custom_fields,omitempty"`
	CreatedBy    *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	UpdatedBy    *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DocumentType) TableName() string { return "document_types" }
