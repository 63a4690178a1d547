package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/middleware"
)

// AdminListUsers lists the members of the caller's own organization; the
// org id comes from the verified identity, so even admins cannot reach
// across tenants.
func (h HandlerSet) AdminListUsers(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	users, err := h.authService.OrgUsers(c.Request.Context(), identity.OrganizationID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": items})
}
