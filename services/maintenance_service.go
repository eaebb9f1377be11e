package services

import (
	"context"
	"time"

	"papermerge/logger"
	"papermerge/repositories"
)

// MaintenanceService runs the background upkeep loops: purging nodes
// soft-deleted longer ago than the retention window, and repairing
// documents missing from the search index.
type MaintenanceService interface {
	Start(ctx context.Context)
	RunOnce(ctx context.Context) error
}

type maintenanceService struct {
	nodes      repositories.NodeRepository
	index      IndexService
	purgeAfter time.Duration
	interval   time.Duration
}

func NewMaintenanceService(nodes repositories.NodeRepository, index IndexService, purgeAfterDays int, interval time.Duration) MaintenanceService {
	return &maintenanceService{
		nodes:      nodes,
		index:      index,
		purgeAfter: time.Duration(purgeAfterDays) * 24 * time.Hour,
		interval:   interval,
	}
}

// Start blocks until ctx is cancelled; callers run it in a goroutine.
func (s *maintenanceService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logger.Infof("maintenance worker started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("maintenance worker stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				logger.Errorf("maintenance run failed: %v", err)
			}
		}
	}
}

func (s *maintenanceService) RunOnce(ctx context.Context) error {
	ctx = WithSystemIdentity(ctx)

	cutoff := nowUTC().Add(-s.purgeAfter)
	purged, err := s.nodes.PurgeDeletedBefore(ctx, nil, cutoff)
	if err != nil {
		return errInternal("failed to purge deleted nodes", err)
	}
	if purged > 0 {
		logger.Infof("purged %d node(s) deleted before %s", purged, cutoff.Format(time.RFC3339))
	}

	fixed, err := s.index.Fix(ctx)
	if err != nil {
		return err
	}
	if fixed > 0 {
		logger.Infof("repaired %d unindexed document(s)", fixed)
	}
	return nil
}
