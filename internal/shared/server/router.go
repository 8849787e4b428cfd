package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course-backend/internal/evaluations"
	"course-backend/internal/services/health"
	"course-backend/internal/shared/config"
	"course-backend/internal/shared/metrics"
	"course-backend/internal/shared/server/middleware"
	"course-backend/internal/shared/server/respond"
)

// RouterDeps bundles everything the router needs to register routes.
type RouterDeps struct {
	Config             config.Config
	EvaluationsHandler *evaluations.Handler
	Health             *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(rateLimitConfig()),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	if deps.EvaluationsHandler != nil {
		deps.EvaluationsHandler.RegisterRoutes(api)
	}

	return r
}

// Polling GETs run hotter than submissions; give them more headroom.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/evaluations/:id" {
				return "POLLING"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 2, Burst: 10},
			"POLLING": {Rate: 10, Burst: 40},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
