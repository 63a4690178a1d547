package models

import (
	"encoding/json"
	"time"
)

type SiteStatus string

const (
	SiteStatusDraft     SiteStatus = "draft"
	SiteStatusPublished SiteStatus = "published"
	SiteStatusArchived  SiteStatus = "archived"
)

type GenerationState string

const (
	GenerationPending  GenerationState = "pending"
	GenerationDone     GenerationState = "generated"
	GenerationFallback GenerationState = "fallback"
	GenerationFailed   GenerationState = "failed"
)

// Site is a tenant-owned website document. OrganizationID never changes
// after creation; Slug is globally unique so public lookup works without
// knowing the tenant.
type Site struct {
	ID              string
	OrganizationID  string
	OwnerID         string
	Name            string
	Slug            string
	Status          SiteStatus
	GenerationState GenerationState
	Content         json.RawMessage
	ViewCount       int64
	PublicURL       *string
	PublishedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
