package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/generator"
	"siteforge/api/internal/middleware"
	"siteforge/api/internal/models"
	"siteforge/api/internal/service"
)

type createSiteRequest struct {
	Name         string   `json:"name" binding:"required"`
	Industry     string   `json:"industry"`
	Description  string   `json:"description"`
	ContactInfo  string   `json:"contactInfo"`
	ColorPalette []string `json:"colorPalette"`
	Language     string   `json:"language"`
}

type siteResponse struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Status          string          `json:"status"`
	GenerationState string          `json:"generationState"`
	Content         json.RawMessage `json:"content"`
	ViewCount       int64           `json:"viewCount"`
	PublicURL       *string         `json:"publicUrl,omitempty"`
	PublishedAt     *time.Time      `json:"publishedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toSiteResponse(site models.Site) siteResponse {
	return siteResponse{
		ID:              site.ID,
		OwnerID:         site.OwnerID,
		Name:            site.Name,
		Slug:            site.Slug,
		Status:          string(site.Status),
		GenerationState: string(site.GenerationState),
		Content:         site.Content,
		ViewCount:       site.ViewCount,
		PublicURL:       site.PublicURL,
		PublishedAt:     site.PublishedAt,
		CreatedAt:       site.CreatedAt,
		UpdatedAt:       site.UpdatedAt,
	}
}

func (h HandlerSet) CreateSite(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := h.siteService.Create(c.Request.Context(), service.CreateSiteInput{
		OwnerID:        identity.UserID,
		OrganizationID: identity.OrganizationID,
		Spec: generator.SiteSpec{
			Industry:     req.Industry,
			Name:         req.Name,
			Description:  req.Description,
			ContactInfo:  req.ContactInfo,
			ColorPalette: req.ColorPalette,
			Language:     req.Language,
		},
	})
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			// The row exists in the failed state; the caller gets both the
			// site and the error, because this needs operator attention.
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "generation_failed",
				"site":  toSiteResponse(site),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"site": toSiteResponse(site)})
}

func (h HandlerSet) ListSites(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ownerID := ""
	if c.Query("mine") == "1" {
		ownerID = identity.UserID
	}

	sites, err := h.siteService.List(c.Request.Context(), identity.OrganizationID, ownerID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]siteResponse, 0, len(sites))
	for _, site := range sites {
		items = append(items, toSiteResponse(site))
	}

	c.JSON(http.StatusOK, gin.H{"sites": items})
}

func (h HandlerSet) GetSite(c *gin.Context) {
	h.withSite(c, h.siteService.Get)
}

type updateSiteRequest struct {
	Name    *string         `json:"name"`
	Content json.RawMessage `json:"content"`
}

func (h HandlerSet) UpdateSite(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	site, err := h.siteService.Update(c.Request.Context(), c.Param("id"), identity.OrganizationID, service.UpdateSiteInput{
		Name:    req.Name,
		Content: req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"site": toSiteResponse(site)})
}

func (h HandlerSet) DeleteSite(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.siteService.Delete(c.Request.Context(), c.Param("id"), identity.OrganizationID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) PublishSite(c *gin.Context) {
	h.withSite(c, h.siteService.Publish)
}

func (h HandlerSet) UnpublishSite(c *gin.Context) {
	h.withSite(c, h.siteService.Unpublish)
}

func (h HandlerSet) ArchiveSite(c *gin.Context) {
	h.withSite(c, h.siteService.Archive)
}

func (h HandlerSet) withSite(c *gin.Context, op func(ctx context.Context, id, orgID string) (models.Site, error)) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	site, err := op(c.Request.Context(), c.Param("id"), identity.OrganizationID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"site": toSiteResponse(site)})
}
