package handlers

import (
	"time"

	"vibe-domain-service/internal/config"
	"vibe-domain-service/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the HTTP router with every public, tenant and internal route
func NewRouter(
	cfg *config.ServerConfig,
	vibeHandlers *VibeHandlers,
	domainHandlers *DomainHandlers,
	internalHandlers *InternalHandlers,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Tenant-ID", "X-User-ID", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health endpoints
	router.GET("/health", internalHandlers.Health)
	router.GET("/ready", internalHandlers.Ready)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		vibe := v1.Group("/vibe")
		{
			vibe.GET("/subdomains/:subdomain/availability", vibeHandlers.CheckAvailability)

			projects := vibe.Group("/projects/:projectId")
			projects.POST("/publish", vibeHandlers.Publish)
			projects.POST("/unpublish", vibeHandlers.Unpublish)
			projects.GET("/site", vibeHandlers.GetSite)
			projects.POST("/custom-domain", vibeHandlers.AddCustomDomain)
			projects.POST("/custom-domain/verify", vibeHandlers.VerifyCustomDomain)
			projects.DELETE("/custom-domain", vibeHandlers.RemoveCustomDomain)
		}

		// Tenant domain routes (scoped by X-Tenant-ID)
		domains := v1.Group("/domains")
		{
			domains.GET("", domainHandlers.ListDomains)
			domains.POST("", domainHandlers.AddDomain)
			domains.GET("/status", domainHandlers.GetDomainStatus)
			domains.PUT("/:domain/target", domainHandlers.UpdateDomainTarget)
			domains.POST("/:domain/verify", domainHandlers.VerifyDomain)
			domains.DELETE("/:domain", domainHandlers.RemoveDomain)
		}

		// Internal routes (service-to-service)
		internal := v1.Group("/internal")
		{
			internal.GET("/resolve", internalHandlers.ResolveSite)
			internal.GET("/tenant", internalHandlers.LookupTenant)
		}
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
