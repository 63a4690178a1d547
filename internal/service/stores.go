package service

import (
	"context"
	"encoding/json"
	"time"

	"siteforge/api/internal/models"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them in production; tests substitute in-memory fakes.

type UserStore interface {
	CreateWithOrganization(ctx context.Context, org models.Organization, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ListByOrganization(ctx context.Context, orgID string) ([]models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	Rotate(ctx context.Context, oldHash []byte, replacement models.Session) (models.Session, error)
	DeleteByHash(ctx context.Context, userID string, hash []byte) error
	DeleteByUser(ctx context.Context, userID string) error
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
}

type OrganizationStore interface {
	GetByID(ctx context.Context, id string) (models.Organization, error)
}

type SiteStore interface {
	CreateWithQuota(ctx context.Context, site models.Site, maxSites int) error
	GetByID(ctx context.Context, id, orgID string) (models.Site, error)
	List(ctx context.Context, orgID, ownerID string) ([]models.Site, error)
	Update(ctx context.Context, site models.Site) error
	UpdateGeneration(ctx context.Context, id string, content json.RawMessage, state models.GenerationState) error
	Delete(ctx context.Context, id, orgID string) error
	GetPublishedBySlug(ctx context.Context, slug string) (models.Site, error)
	AddViews(ctx context.Context, slug string, delta int64) error
	ListStalePending(ctx context.Context, olderThan time.Time) ([]models.Site, error)
}

// ViewCounter buffers public-page view increments (Redis in production).
type ViewCounter interface {
	Record(ctx context.Context, slug string) error
}

// SnapshotPublisher receives the content document of a published site so the
// public URL can be served from object storage.
type SnapshotPublisher interface {
	Put(ctx context.Context, slug string, content []byte) error
}
