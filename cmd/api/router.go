package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"profile-server/internal/shared/middleware"
	"profile-server/internal/shared/response"
	"profile-server/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins),
		middleware.Metrics(c.Metrics),
	)

	router.GET("/health", healthCheckHandler(c))
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	router.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Route not found")
	})

	// Credentials: x-api-key hoặc Bearer token, không có thì public scope
	v1 := router.Group("/api/v1", middleware.Authenticate(c.OrganizationService, c.JWTManager))
	{
		setupOrganizationRoutes(v1, c)
		setupProfileRoutes(v1, c)
		setupComponentRoutes(v1, c)
	}

	return router
}

// ========================================
// ORGANIZATION ROUTES
// ========================================
func setupOrganizationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.OrganizationHandler

	org := v1.Group("/org")
	{
		org.GET("", h.List)
		org.GET("/:org", h.Get)
		org.POST("", middleware.RequireUser(), h.Create)
		org.POST("/:org/member", middleware.RequireUser(), h.AddMember)
		org.POST("/:org/apikey", middleware.RequireUser(), h.CreateAPIKey)

		// tạo profile trong organization
		org.POST("/:org/profile", middleware.RequireCredentials(), c.ProfileHandler.CreateProfile)
	}
}

// ========================================
// PROFILE ROUTES
// ========================================
func setupProfileRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.ProfileHandler

	v1.GET("/profiles", h.ListProfiles)

	profile := v1.Group("/profile")
	{
		// Documents
		profile.POST("/import", middleware.RequireCredentials(), h.Import)
		profile.POST("/validate", h.Validate)

		// Read
		profile.GET("/:profile", h.GetProfile)
		profile.GET("/:profile/resolve", h.Resolve)
		profile.GET("/:profile/meta", h.GetMetadata)
		profile.GET("/:profile/export", h.Export)
		profile.GET("/:profile/snapshot", c.SnapshotHandler.GetSnapshot)

		// Lifecycle
		write := profile.Group("", middleware.RequireCredentials())
		{
			write.PUT("", h.UpdateProfile)
			write.DELETE("/:profile", h.DeleteProfile)
			write.POST("/:profile/publish", h.Publish)
			write.POST("/:profile/deprecate", h.Deprecate)
			write.POST("/:profile/status", h.UpdateStatus)
		}
	}
}

// ========================================
// COMPONENT ROUTES (draft authoring)
// ========================================
func setupComponentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.ProfileHandler

	components := v1.Group("/profile/:profile", middleware.RequireCredentials())
	{
		components.POST("/concepts", h.CreateConcept)
		components.PUT("/concepts/:component", h.UpdateConcept)
		components.POST("/templates", h.CreateTemplate)
		components.PUT("/templates/:component", h.UpdateTemplate)
		components.POST("/patterns", h.CreatePattern)
		components.PUT("/patterns/:component", h.UpdatePattern)
		components.DELETE("/:type/:component", h.DeleteComponent)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"store":     appCtx.Config.Store.Driver,
		}

		// Database (chỉ khi dùng postgres)
		dbStatus := "not used"
		if appCtx.DB != nil {
			dbStatus = "ok"
			if err := appCtx.DB.Ping(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			} else {
				health["pool"] = appCtx.DB.Stats()
			}
		}

		// Redis không critical
		cacheStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = fmt.Sprintf("error: %v", err)
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"cache":    cacheStatus,
		}

		statusCode := http.StatusOK
		if health["status"] != "ok" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}
