package workers

import (
	"context"
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/repository"

	"github.com/rs/zerolog/log"
)

// CleanupWorker demotes stale published records so each project is served
// by at most one published site
type CleanupWorker struct {
	cfg    *config.Config
	sites  *repository.SiteRepository
	stopCh chan struct{}
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(
	cfg *config.Config,
	sites *repository.SiteRepository,
) *CleanupWorker {
	return &CleanupWorker{
		cfg:    cfg,
		sites:  sites,
		stopCh: make(chan struct{}),
	}
}

// Start starts the cleanup worker
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.cfg.Workers.CleanupInterval).Msg("Starting cleanup worker")

	ticker := time.NewTicker(w.cfg.Workers.CleanupInterval)
	defer ticker.Stop()

	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cleanup worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("Cleanup worker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop stops the worker
func (w *CleanupWorker) Stop() {
	close(w.stopCh)
}

func (w *CleanupWorker) run(ctx context.Context) {
	log.Debug().Msg("Running cleanup")

	projects, err := w.sites.GetProjectsWithDuplicatePublished(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to find projects with duplicate published sites")
		return
	}

	var total int64
	for _, projectID := range projects {
		if ctx.Err() != nil {
			return
		}

		demoted, err := w.sites.DemoteDuplicatePublished(ctx, projectID)
		if err != nil {
			log.Error().Err(err).Str("project_id", projectID).Msg("Failed to demote duplicate published sites")
			continue
		}
		total += demoted
	}

	if total > 0 {
		log.Info().Int64("demoted", total).Int("projects", len(projects)).Msg("Demoted duplicate published sites")
	}
}
