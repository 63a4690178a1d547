package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/repository"
	"siteforge/api/internal/security"
	"siteforge/api/internal/service"
)

// writeError maps internal error kinds to HTTP responses. Authentication
// failures all collapse into one uniform 401 body so callers cannot probe
// which part of a credential was wrong; tenancy misses always read as 404.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionInvalid),
		errors.Is(err, security.ErrTokenInvalid),
		errors.Is(err, security.ErrTokenExpired),
		errors.Is(err, security.ErrTokenKindMismatch),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

	case errors.Is(err, repository.ErrSiteNotFound),
		errors.Is(err, repository.ErrOrganizationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})

	case errors.Is(err, repository.ErrQuotaExceeded):
		c.JSON(http.StatusForbidden, gin.H{"error": "quota_exceeded"})

	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})

	case errors.Is(err, repository.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "slug_taken"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
