package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchIndexRow mirrors the scannable columns of document_search_index.
// The table itself (including the text[] tags column and the tsvector) is
// created and maintained by the DDL in database/search_index.go; gorm
// never migrates it and queries read only these columns.
type SearchIndexRow struct {
	DocumentID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"document_id"`
	DocumentTypeID   *uuid.UUID `json:"document_type_id,omitempty"`
	DocumentTypeName *string    `json:"document_type_name,omitempty"`
	OwnerType        string     `json:"owner_type"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Lang             string     `json:"lang"`
	Title            *string    `json:"title,omitempty"`
	CustomFieldsText *string    `json:"custom_fields_text,omitempty"`
	LastUpdated      time.Time  `json:"last_updated"`
}

func (SearchIndexRow) TableName() string { return "document_search_index" }

// IndexStats is the payload of the search-index stats operation.
type IndexStats struct {
	TotalDocuments int64 `json:"total_documents"`
	Indexed        int64 `json:"indexed"`
	Missing        int64 `json:"missing"`
	IndexSizeBytes int64 `json:"index_size_bytes"`
}
