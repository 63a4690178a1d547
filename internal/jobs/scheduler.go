package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"siteforge/api/internal/cache"
	"siteforge/api/internal/repository"
	"siteforge/api/internal/service"
)

// stalePendingAge is how long a site may sit in PENDING before the sweep
// treats the create as crashed and applies the fallback document.
const stalePendingAge = 15 * time.Minute

// Scheduler runs the periodic maintenance the request path deliberately
// avoids: flushing buffered view counts, purging lapsed sessions and
// repairing sites stranded mid-create.
type Scheduler struct {
	cron     *cron.Cron
	views    *cache.ViewCounter
	sites    *repository.SiteRepository
	sessions *repository.SessionRepository
	svc      *service.SiteService
	log      zerolog.Logger
}

func NewScheduler(
	views *cache.ViewCounter,
	sites *repository.SiteRepository,
	sessions *repository.SessionRepository,
	svc *service.SiteService,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		views:    views,
		sites:    sites,
		sessions: sessions,
		svc:      svc,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.flushViews); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 * * * *", s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/10 * * * *", s.reconcilePending); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) flushViews() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	counts, err := s.views.Drain(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("drain view counters failed")
	}
	for slug, delta := range counts {
		if err := s.sites.AddViews(ctx, slug, delta); err != nil {
			s.log.Error().Err(err).Str("slug", slug).Int64("delta", delta).Msg("flush view count failed")
		}
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("purge expired sessions failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions purged")
	}
}

func (s *Scheduler) reconcilePending() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repaired, err := s.svc.ReconcileStalePending(ctx, stalePendingAge)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile pending sites failed")
		return
	}
	if repaired > 0 {
		s.log.Info().Int("repaired", repaired).Msg("stale pending sites repaired")
	}
}
