package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"siteforge/api/internal/config"
	"siteforge/api/internal/generator"
	"siteforge/api/internal/ids"
	"siteforge/api/internal/models"
	"siteforge/api/internal/repository"
	"siteforge/api/internal/slug"
)

// maxSlugAttempts bounds the auto-suffix loop; a racing insert of the same
// candidate shows up as a unique violation and we move to the next suffix.
const maxSlugAttempts = 25

// ErrGenerationFailed wraps a configuration failure of the content
// generator. The site row persists in the failed state; the error still
// reaches the caller because a misconfigured deployment should be loud.
var ErrGenerationFailed = errors.New("content generation failed")

type SiteService struct {
	sites     SiteStore
	orgs      OrganizationStore
	gen       generator.ContentGenerator
	views     ViewCounter
	snapshots SnapshotPublisher
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewSiteService(
	sites SiteStore,
	orgs OrganizationStore,
	gen generator.ContentGenerator,
	views ViewCounter,
	snapshots SnapshotPublisher,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *SiteService {
	return &SiteService{
		sites:     sites,
		orgs:      orgs,
		gen:       gen,
		views:     views,
		snapshots: snapshots,
		cfg:       cfg,
		log:       log,
	}
}

type CreateSiteInput struct {
	OwnerID        string
	OrganizationID string
	Spec           generator.SiteSpec
}

// Create persists a new draft site and runs the generation pipeline. The
// quota check happens inside the insert transaction, before slug handling,
// so an over-quota create fails with ErrQuotaExceeded even when the name
// collides. The external generator call runs after the row exists and
// outside any transaction.
func (s *SiteService) Create(ctx context.Context, input CreateSiteInput) (models.Site, error) {
	name := strings.TrimSpace(input.Spec.Name)
	if name == "" {
		return models.Site{}, fmt.Errorf("site name required")
	}

	org, err := s.orgs.GetByID(ctx, input.OrganizationID)
	if err != nil {
		return models.Site{}, err
	}

	site := models.Site{
		ID:              ids.New(),
		OrganizationID:  input.OrganizationID,
		OwnerID:         input.OwnerID,
		Name:            name,
		Status:          models.SiteStatusDraft,
		GenerationState: models.GenerationPending,
		Content:         json.RawMessage(`{}`),
	}

	base := slug.Make(name)
	if base == "" {
		base = "site"
	}
	for attempt := 0; ; attempt++ {
		if attempt >= maxSlugAttempts {
			return models.Site{}, fmt.Errorf("no free slug for %q", base)
		}
		site.Slug = slug.WithSuffix(base, attempt)
		err := s.sites.CreateWithQuota(ctx, site, org.MaxSites)
		if errors.Is(err, repository.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return models.Site{}, err
		}
		break
	}

	return s.runGeneration(ctx, site, input.Spec)
}

// runGeneration resolves the external call into a terminal generation state.
// Success and fallback return a usable site; a configuration failure is
// recorded and propagated.
func (s *SiteService) runGeneration(ctx context.Context, site models.Site, spec generator.SiteSpec) (models.Site, error) {
	content, err := s.gen.Generate(ctx, spec)
	switch {
	case err == nil:
		site.Content = content
		site.GenerationState = models.GenerationDone

	case generator.KindOf(err) == generator.KindConfiguration:
		s.log.Error().Err(err).Str("site_id", site.ID).Msg("generation configuration failure")
		note, _ := json.Marshal(map[string]string{"error": err.Error()})
		site.Content = note
		site.GenerationState = models.GenerationFailed
		if updateErr := s.sites.UpdateGeneration(ctx, site.ID, site.Content, site.GenerationState); updateErr != nil {
			s.log.Error().Err(updateErr).Str("site_id", site.ID).Msg("record generation failure")
		}
		return site, fmt.Errorf("%w: %w", ErrGenerationFailed, err)

	default:
		s.log.Warn().Err(err).Str("site_id", site.ID).Msg("generation fell back to local document")
		site.Content = generator.FallbackDocument(spec)
		site.GenerationState = models.GenerationFallback
	}

	if err := s.sites.UpdateGeneration(ctx, site.ID, site.Content, site.GenerationState); err != nil {
		// The row stays PENDING; the reconciliation sweep picks it up.
		return models.Site{}, fmt.Errorf("persist generated content: %w", err)
	}
	return site, nil
}

func (s *SiteService) Get(ctx context.Context, id, orgID string) (models.Site, error) {
	return s.sites.GetByID(ctx, id, orgID)
}

func (s *SiteService) List(ctx context.Context, orgID, ownerID string) ([]models.Site, error) {
	return s.sites.List(ctx, orgID, ownerID)
}

type UpdateSiteInput struct {
	Name    *string
	Content json.RawMessage
}

// Update applies a partial patch; nil fields keep their current values.
func (s *SiteService) Update(ctx context.Context, id, orgID string, patch UpdateSiteInput) (models.Site, error) {
	site, err := s.sites.GetByID(ctx, id, orgID)
	if err != nil {
		return models.Site{}, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Site{}, fmt.Errorf("site name required")
		}
		site.Name = name
	}
	if patch.Content != nil {
		site.Content = patch.Content
	}

	if err := s.sites.Update(ctx, site); err != nil {
		return models.Site{}, err
	}
	return site, nil
}

// Publish marks the site published, stamps the publish time and derives the
// public URL from the slug. The content snapshot is pushed to object storage
// best effort; the database copy remains authoritative.
func (s *SiteService) Publish(ctx context.Context, id, orgID string) (models.Site, error) {
	site, err := s.sites.GetByID(ctx, id, orgID)
	if err != nil {
		return models.Site{}, err
	}

	now := time.Now().UTC()
	url := s.publicURL(site.Slug)
	site.Status = models.SiteStatusPublished
	site.PublishedAt = &now
	site.PublicURL = &url

	if err := s.sites.Update(ctx, site); err != nil {
		return models.Site{}, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.Put(ctx, site.Slug, site.Content); err != nil {
			s.log.Warn().Err(err).Str("slug", site.Slug).Msg("snapshot upload failed")
		}
	}
	return site, nil
}

// Unpublish reverts the site to draft. PublishedAt and the public URL stay
// as historical metadata; a later re-publish reuses the same URL.
func (s *SiteService) Unpublish(ctx context.Context, id, orgID string) (models.Site, error) {
	return s.setStatus(ctx, id, orgID, models.SiteStatusDraft)
}

func (s *SiteService) Archive(ctx context.Context, id, orgID string) (models.Site, error) {
	return s.setStatus(ctx, id, orgID, models.SiteStatusArchived)
}

func (s *SiteService) setStatus(ctx context.Context, id, orgID string, status models.SiteStatus) (models.Site, error) {
	site, err := s.sites.GetByID(ctx, id, orgID)
	if err != nil {
		return models.Site{}, err
	}
	site.Status = status
	if err := s.sites.Update(ctx, site); err != nil {
		return models.Site{}, err
	}
	return site, nil
}

func (s *SiteService) Delete(ctx context.Context, id, orgID string) error {
	if _, err := s.sites.GetByID(ctx, id, orgID); err != nil {
		return err
	}
	return s.sites.Delete(ctx, id, orgID)
}

// GetPublic serves a published site by slug, the single untenanted read.
// The view count is at-least-once: the increment goes through the buffered
// counter when available and falls back to a direct write.
func (s *SiteService) GetPublic(ctx context.Context, siteSlug string) (models.Site, error) {
	site, err := s.sites.GetPublishedBySlug(ctx, siteSlug)
	if err != nil {
		return models.Site{}, err
	}

	if s.views != nil {
		if err := s.views.Record(ctx, siteSlug); err == nil {
			return site, nil
		}
	}
	if err := s.sites.AddViews(ctx, siteSlug, 1); err != nil {
		s.log.Warn().Err(err).Str("slug", siteSlug).Msg("view count increment failed")
	}
	return site, nil
}

// ReconcileStalePending applies the deterministic fallback document to sites
// that were left in PENDING by a crash between the insert and the pipeline
// write. Only the stored name is available at this point, so the fallback is
// rebuilt from it alone.
func (s *SiteService) ReconcileStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stale, err := s.sites.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, site := range stale {
		content := generator.FallbackDocument(generator.SiteSpec{Name: site.Name})
		if err := s.sites.UpdateGeneration(ctx, site.ID, content, models.GenerationFallback); err != nil {
			s.log.Error().Err(err).Str("site_id", site.ID).Msg("reconcile pending site")
			continue
		}
		repaired++
	}
	return repaired, nil
}

func (s *SiteService) publicURL(siteSlug string) string {
	base := strings.TrimSuffix(s.cfg.Storage.PublicBaseURL, "/")
	return base + "/" + siteSlug
}
