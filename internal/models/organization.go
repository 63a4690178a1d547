package models

import "time"

// Organization is the tenant boundary. MaxSites <= 0 means unlimited.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	Plan      string
	MaxSites  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	PlanFree string = "free"
	PlanPro  string = "pro"
)
