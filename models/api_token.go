package models

import (
	"time"

	"github.com/google/uuid"
)

// APIToken stores only the SHA-256 digest of the plaintext; the plaintext
// is returned once at creation and never persisted.
type APIToken struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"type:varchar(100);not null" json:"name"`
	TokenHash   string     `gorm:"type:char(64);not null;uniqueIndex" json:"-"`
	TokenPrefix string     `gorm:"type:varchar(8);not null" json:"token_prefix"`
	Scopes      *string    `gorm:"type:text" json:"scopes,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (APIToken) TableName() string { return "api_tokens" }
