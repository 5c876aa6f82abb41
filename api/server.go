/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the routes. This is
  the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     unique id per request, echoed into every log line
  2. RealIP:        X-Forwarded-For / X-Real-IP aware remote address
  3. RequestLogger: zap access log + request-scoped logger in context
  4. Recoverer:     panic recovery (500 instead of crash)
  5. CORS:          configurable origins

ROUTES:
  GET  /health                                  liveness, no credential
  GET  /leave/{employee_code}                   summary
  GET  /leave/{employee_code}/{leave_type_code} single-type balance
  POST /leave/apply                             submit application

  Everything under /leave requires a valid X-API-Key, resolved before the
  handler runs, and is rate limited per resolved tenant. Failed resolutions
  are rate limited per client address, so rotating bogus keys does not
  escape the limit.

SEE ALSO:
  - handlers.go: handler implementations
  - middleware.go: tenant resolution, logging, rate limiting
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the knobs of NewRouter.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimit      RateLimitConfig
	Logger         *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/leave", func(r chi.Router) {
		r.Use(RequireTenant(h.engine, NewRateLimiter(cfg.RateLimit)))
		r.Use(RateLimit(cfg.RateLimit, TenantKey))

		r.Post("/apply", h.ApplyLeave)
		r.Get("/{employee_code}", h.GetSummary)
		r.Get("/{employee_code}/{leave_type_code}", h.GetTypeBalance)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
