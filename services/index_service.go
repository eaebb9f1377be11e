package services

import (
	"context"

	"papermerge/logger"
	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
)

// IndexService drives the denormalized search index. Day-to-day upkeep
// is trigger-driven inside Postgres; these operations exist for recovery
// and for the CLI.
type IndexService interface {
	RebuildAll(ctx context.Context) error
	Reindex(ctx context.Context, ids []uuid.UUID) error
	Fix(ctx context.Context) (int, error)
	Stats(ctx context.Context) (models.IndexStats, error)
	Clear(ctx context.Context) error
}

type indexService struct {
	index repositories.IndexRepository
}

func NewIndexService(index repositories.IndexRepository) IndexService {
	return &indexService{index: index}
}

func (s *indexService) RebuildAll(ctx context.Context) error {
	logger.Infof("rebuilding the search index from canonical tables")
	if err := s.index.RebuildAll(ctx); err != nil {
		return errInternal("failed to rebuild search index", err)
	}
	return nil
}

func (s *indexService) Reindex(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.index.Reindex(ctx, ids); err != nil {
		return errInternal("failed to reindex documents", err)
	}
	return nil
}

// Fix reindexes documents missing from the index and returns how many
// were repaired.
func (s *indexService) Fix(ctx context.Context) (int, error) {
	missing, err := s.index.FindUnindexed(ctx)
	if err != nil {
		return 0, errInternal("failed to find unindexed documents", err)
	}
	if len(missing) == 0 {
		return 0, nil
	}
	logger.Infof("repairing %d unindexed document(s)", len(missing))
	if err := s.index.Reindex(ctx, missing); err != nil {
		return 0, errInternal("failed to reindex documents", err)
	}
	return len(missing), nil
}

func (s *indexService) Stats(ctx context.Context) (models.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return models.IndexStats{}, errInternal("failed to collect index stats", err)
	}
	return stats, nil
}

func (s *indexService) Clear(ctx context.Context) error {
	logger.Warnf("clearing the search index")
	if err := s.index.Clear(ctx); err != nil {
		return errInternal("failed to clear search index", err)
	}
	return nil
}
