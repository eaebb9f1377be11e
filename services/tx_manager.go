package services

import (
	"context"

	"gorm.io/gorm"
)

// TxManager mirrors repositories.TxManager so services can be declared
// against their own package's contract.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
