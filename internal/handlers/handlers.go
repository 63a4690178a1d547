package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"siteforge/api/internal/config"
	"siteforge/api/internal/middleware"
	"siteforge/api/internal/models"
	"siteforge/api/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	siteService *service.SiteService
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cacheClient *redis.Client,
	auth *service.AuthService,
	sites *service.SiteService,
	cfg *config.AppConfig,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: auth,
		siteService: sites,
		db:          db,
		cache:       cacheClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	public := router.Group("/public")
	public.GET("/sites/:slug", h.GetPublicSite)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg))
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions", h.RevokeAllSessions)
	}

	sites := v1.Group("/sites")
	sites.Use(middleware.Auth(h.cfg))
	{
		sites.POST("", h.CreateSite)
		sites.GET("", h.ListSites)
		sites.GET("/:id", h.GetSite)
		sites.PATCH("/:id", h.UpdateSite)
		sites.DELETE("/:id", h.DeleteSite)
		sites.POST("/:id/publish", h.PublishSite)
		sites.POST("/:id/unpublish", h.UnpublishSite)
		sites.POST("/:id/archive", h.ArchiveSite)
	}

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg),
		middleware.RequireRole(models.UserRoleAdmin),
	)
	admin.GET("/users", h.AdminListUsers)
}
