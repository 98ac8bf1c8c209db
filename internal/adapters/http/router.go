package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/handlers"
	"github.com/jsamuelsen/jokeboard/internal/adapters/http/middleware"
	"github.com/jsamuelsen/jokeboard/internal/platform/telemetry"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	// Sessions mounts the joke store of each browser session.
	Sessions middleware.StoreMounter

	// Session configures the session cookie.
	Session middleware.SessionConfig

	HealthHandler *handlers.HealthHandler
	JokesHandler  *handlers.JokesHandler
	PageHandler   *handlers.PageHandler

	// Timeout bounds /api/v1 requests, including the initial fetch of a
	// new session. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. Session - mount the caller's joke store (page and API routes only)
//
// Route groups:
//   - /-/ (internal): Health endpoints, no session
//   - / (page): HTML page and fragments
//   - /api/v1/ (API): JSON endpoints with a request timeout
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "jokeboard"
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(serviceName)...)
	engine.Use(middleware.Logging(cfg.Logger, "/favicon.ico"))

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	if cfg.Sessions == nil {
		return
	}

	session := middleware.Session(cfg.Sessions, cfg.Session)

	if cfg.PageHandler != nil {
		cfg.PageHandler.RegisterPageRoutes(engine.Group("", session))
	}

	if cfg.JokesHandler != nil {
		apiV1 := engine.Group("/api/v1")
		if cfg.Timeout > 0 {
			apiV1.Use(middleware.Timeout(cfg.Timeout))
		}

		apiV1.Use(session)
		cfg.JokesHandler.RegisterJokeRoutes(apiV1)
	}
}
