package repositories

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type GormRepositories struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewGormRepositories(db *gorm.DB, redisClient *redis.Client) *GormRepositories {
	return &GormRepositories{db: db, redis: redisClient}
}

func (g *GormRepositories) BuildContainer() Container {
	return Container{
		TxManager:     &gormTxManager{db: g.db},
		Nodes:         NewGormNodeRepository(g.db),
		Documents:     NewGormDocumentRepository(g.db),
		Tags:          NewGormTagRepository(g.db),
		DocumentTypes: NewGormDocumentTypeRepository(g.db),
		CustomFields:  NewGormCustomFieldRepository(g.db),
		Users:         NewGormUserRepository(g.db),
		Tokens:        NewGormTokenRepository(g.db),
		SharedNodes:   NewGormSharedNodeRepository(g.db),
		Index:         NewGormIndexRepository(g.db),
		Search:        NewGormSearchRepository(g.db),
		AuditLog:      NewGormAuditLogRepository(g.db),
	}
}

type gormTxManager struct {
	db *gorm.DB
}

func (m *gormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

// useTx prefers the caller's transaction over the repository connection.
func useTx(db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
