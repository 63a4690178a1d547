package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"siteforge/api/internal/models"
)

type SiteRepository struct {
	pool *pgxpool.Pool
}

func NewSiteRepository(pool *pgxpool.Pool) *SiteRepository {
	return &SiteRepository{pool: pool}
}

const siteColumns = `id, organization_id, owner_id, name, slug, status, generation_state,
	content, view_count, public_url, published_at, created_at, updated_at`

func scanSite(row pgx.Row) (models.Site, error) {
	var site models.Site
	err := row.Scan(
		&site.ID,
		&site.OrganizationID,
		&site.OwnerID,
		&site.Name,
		&site.Slug,
		&site.Status,
		&site.GenerationState,
		&site.Content,
		&site.ViewCount,
		&site.PublicURL,
		&site.PublishedAt,
		&site.CreatedAt,
		&site.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Site{}, ErrSiteNotFound
	}
	return site, err
}

// CreateWithQuota checks the organization's site quota and inserts the row
// in one transaction. The organization row is locked first, so two racing
// creates serialize and the loser of a full quota sees ErrQuotaExceeded. A
// slug collision surfaces as ErrSlugTaken for the caller to retry with the
// next suffix.
func (r *SiteRepository) CreateWithQuota(ctx context.Context, site models.Site, maxSites int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var orgID string
	err = tx.QueryRow(ctx, `SELECT id FROM organizations WHERE id = $1 FOR UPDATE`, site.OrganizationID).Scan(&orgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrganizationNotFound
		}
		return err
	}

	if maxSites > 0 {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM sites WHERE organization_id = $1`, site.OrganizationID).Scan(&count); err != nil {
			return err
		}
		if count >= maxSites {
			return ErrQuotaExceeded
		}
	}

	const insert = `
		INSERT INTO sites (id, organization_id, owner_id, name, slug, status, generation_state, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	if _, err := tx.Exec(ctx, insert,
		site.ID,
		site.OrganizationID,
		site.OwnerID,
		site.Name,
		site.Slug,
		site.Status,
		site.GenerationState,
		site.Content,
	); err != nil {
		if uniqueViolation(err, "sites_slug_key") {
			return ErrSlugTaken
		}
		return err
	}

	return tx.Commit(ctx)
}

// GetByID resolves a site within one tenant. The org filter lives in the
// same WHERE clause as the id, so another tenant's site is indistinguishable
// from a missing one.
func (r *SiteRepository) GetByID(ctx context.Context, id, orgID string) (models.Site, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1 AND organization_id = $2`, id, orgID)
	return scanSite(row)
}

func (r *SiteRepository) List(ctx context.Context, orgID, ownerID string) ([]models.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM sites WHERE organization_id = $1`
	args := []any{orgID}
	if ownerID != "" {
		query += ` AND owner_id = $2`
		args = append(args, ownerID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (r *SiteRepository) Update(ctx context.Context, site models.Site) error {
	const query = `
		UPDATE sites
		SET name = $3, status = $4, content = $5, public_url = $6, published_at = $7, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query,
		site.ID,
		site.OrganizationID,
		site.Name,
		site.Status,
		site.Content,
		site.PublicURL,
		site.PublishedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

// UpdateGeneration records the outcome of the generation pipeline. It runs
// in its own transaction, after the external call has already returned.
func (r *SiteRepository) UpdateGeneration(ctx context.Context, id string, content json.RawMessage, state models.GenerationState) error {
	const query = `
		UPDATE sites SET content = $2, generation_state = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, content, state)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

func (r *SiteRepository) Delete(ctx context.Context, id, orgID string) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM sites WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}

// GetPublishedBySlug is the only untenanted lookup; it serves the public
// site page and therefore only sees published rows.
func (r *SiteRepository) GetPublishedBySlug(ctx context.Context, slug string) (models.Site, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE slug = $1 AND status = 'published'`, slug)
	return scanSite(row)
}

// AddViews folds buffered view counts into the durable counter.
func (r *SiteRepository) AddViews(ctx context.Context, slug string, delta int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sites SET view_count = view_count + $2 WHERE slug = $1`, slug, delta)
	return err
}

// ListStalePending returns sites that never made it past PENDING, typically
// because the process died between the insert and the pipeline write.
func (r *SiteRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Site, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE generation_state = 'pending' AND created_at < $1`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}
