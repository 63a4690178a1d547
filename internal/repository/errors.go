package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSiteNotFound         = errors.New("site not found")

	ErrEmailTaken    = errors.New("email already registered")
	ErrSlugTaken     = errors.New("slug already taken")
	ErrQuotaExceeded = errors.New("site quota exceeded")
)

// uniqueViolation reports whether err is a unique-constraint violation on
// the named constraint (or on any constraint when name is empty).
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
