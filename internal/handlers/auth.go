package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/middleware"
	"siteforge/api/internal/models"
	"siteforge/api/internal/service"
)

const refreshCookieName = "refresh_token"

type registerRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	DisplayName      string `json:"displayName" binding:"required"`
	OrganizationName string `json:"organizationName" binding:"required"`
}

type userResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	Role           string `json:"role"`
}

type organizationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Plan     string `json:"plan"`
	MaxSites int    `json:"maxSites"`
}

type authResponse struct {
	AccessToken      string                `json:"accessToken"`
	AccessExpiresAt  time.Time             `json:"accessExpiresAt"`
	RefreshToken     string                `json:"refreshToken"`
	RefreshExpiresAt time.Time             `json:"refreshExpiresAt"`
	User             userResponse          `json:"user"`
	Organization     *organizationResponse `json:"organization,omitempty"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		DisplayName:      req.DisplayName,
		OrganizationName: req.OrganizationName,
		IPAddress:        c.ClientIP(),
		UserAgent:        c.GetHeader("User-Agent"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.sendAuthResponse(c, result, &org)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.sendAuthResponse(c, result, nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshTokenFrom prefers the HttpOnly cookie; the body field exists for
// clients that cannot carry cookies.
func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h HandlerSet) Refresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token_required"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), service.RefreshInput{
		RefreshToken: token,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.GetHeader("User-Agent"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.sendAuthResponse(c, result, nil)
}

func (h HandlerSet) Logout(c *gin.Context) {
	token := refreshTokenFrom(c)
	if token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("logout revoke failed")
		}
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.User(c.Request.Context(), identity.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type sessionResponse struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessions, err := h.authService.Sessions(c.Request.Context(), identity.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, sessionResponse{
			ID:        session.ID,
			IPAddress: session.IPAddress,
			UserAgent: session.UserAgent,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

func (h HandlerSet) RevokeAllSessions(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.authService.RevokeAll(c.Request.Context(), identity.UserID); err != nil {
		writeError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) sendAuthResponse(c *gin.Context, result service.AuthResult, org *models.Organization) {
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresAt)

	resp := authResponse{
		AccessToken:      result.AccessToken,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshToken:     result.RefreshToken,
		RefreshExpiresAt: result.RefreshExpiresAt,
		User:             toUserResponse(result.User),
	}
	if org != nil {
		resp.Organization = &organizationResponse{
			ID:       org.ID,
			Name:     org.Name,
			Slug:     org.Slug,
			Plan:     org.Plan,
			MaxSites: org.MaxSites,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(time.Until(expiresAt).Seconds())
	secure := h.cfg.Environment == "production"
	c.SetCookie(refreshCookieName, token, maxAge, "/api/v1/auth", "", secure, true)
}

func (h HandlerSet) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	secure := h.cfg.Environment == "production"
	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", secure, true)
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Email:          user.Email,
		DisplayName:    user.DisplayName,
		Role:           string(user.Role),
	}
}
