package server

import (
	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/bucket"
	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/export"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/abduss/linkbucket/internal/logger"
	"github.com/abduss/linkbucket/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config        config.Config
	HealthChecks  []HealthCheck
	AuthService   *auth.Service
	BucketService *bucket.Service
	LinkService   *link.Service
	ExportService *export.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps.HealthChecks)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService == nil {
		return router
	}

	cookies := auth.CookieSettingsFrom(deps.Config.Session)
	auth.RegisterRoutes(api, deps.AuthService, cookies)

	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware(deps.AuthService, cookies.Name))

	public := api.Group("/")
	public.Use(auth.OptionalAuth(deps.AuthService, cookies.Name))

	if deps.BucketService != nil {
		bucket.RegisterRoutes(protected, public, deps.BucketService)
	}
	if deps.LinkService != nil {
		link.RegisterRoutes(protected, deps.LinkService)
	}
	if deps.ExportService != nil {
		export.RegisterRoutes(protected, deps.ExportService)
	}

	return router
}
