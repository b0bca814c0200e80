package router

import (
	"time"

	"github.com/Payphone-Digital/tracker/config"
	"github.com/Payphone-Digital/tracker/internal/handler"
	"github.com/Payphone-Digital/tracker/internal/middleware"
	"github.com/Payphone-Digital/tracker/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	orgHandler    *handler.OrganizationHandler
	healthHandler *handler.HealthHandler

	jwtMw       *middleware.JWTMiddleware
	httpMetrics *metrics.HTTPMetrics
	gatherer    prometheus.Gatherer
	Config      *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	org *handler.OrganizationHandler,
	health *handler.HealthHandler,

	jwtMw *middleware.JWTMiddleware,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		userHandler:   user,
		orgHandler:    org,
		healthHandler: health,

		jwtMw:       jwtMw,
		httpMetrics: httpMetrics,
		gatherer:    gatherer,
		Config:      config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.DefaultContextMiddleware("api", r.Config.App.Timeout)...)
	router.Use(middleware.Metrics(r.httpMetrics))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware())
	router.Use(middleware.CORS())

	if r.Config.Metrics.Enabled && r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.HealthCheck)
		api.GET("/health/live", r.healthHandler.BasicHealth)

		v1 := api.Group("/v1")
		{
			limiter := middleware.NewRateLimiter(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second)

			r.authRoutes(v1, limiter)
			r.userRoutes(v1)
			r.organizationRoutes(v1)
		}
	}

	return router
}
