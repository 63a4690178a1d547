package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPublicSite serves a published site by slug without authentication and
// records a view.
func (h HandlerSet) GetPublicSite(c *gin.Context) {
	site, err := h.siteService.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        site.Name,
		"slug":        site.Slug,
		"content":     site.Content,
		"publishedAt": site.PublishedAt,
	})
}
