package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/repository"
	"siteforge/api/internal/security"
	"siteforge/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		errField string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"session invalid", service.ErrSessionInvalid, http.StatusUnauthorized, "unauthorized"},
		{"token invalid", security.ErrTokenInvalid, http.StatusUnauthorized, "unauthorized"},
		{"token expired", security.ErrTokenExpired, http.StatusUnauthorized, "unauthorized"},
		{"token kind mismatch", security.ErrTokenKindMismatch, http.StatusUnauthorized, "unauthorized"},
		{"user not found", repository.ErrUserNotFound, http.StatusUnauthorized, "unauthorized"},
		{"session not found", repository.ErrSessionNotFound, http.StatusUnauthorized, "unauthorized"},
		{"site not found", repository.ErrSiteNotFound, http.StatusNotFound, "not_found"},
		{"org not found", repository.ErrOrganizationNotFound, http.StatusNotFound, "not_found"},
		{"quota exceeded", repository.ErrQuotaExceeded, http.StatusForbidden, "quota_exceeded"},
		{"email taken", repository.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"slug taken", repository.ErrSlugTaken, http.StatusConflict, "slug_taken"},
		{"wrapped sentinel", fmt.Errorf("login: %w", service.ErrInvalidCredentials), http.StatusUnauthorized, "unauthorized"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			writeError(c, tc.err)

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			want := fmt.Sprintf(`{"error":%q}`, tc.errField)
			if w.Body.String() != want {
				t.Fatalf("body = %s, want %s", w.Body, want)
			}
		})
	}
}
