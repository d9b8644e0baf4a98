package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"onchain_yield_api/internal/handler"
)

// securityHeaders are set on every response.
var securityHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self'"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=15552000; includeSubDomains"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
}

// NewRouter mounts the API behind the per-client rate limiter. /health and
// /metrics are not rate limited. Cross-origin requests are accepted only from
// allowedOrigins.
func NewRouter(
	h *handler.Handler,
	limiter *ClientLimiter,
	metricsHandler http.Handler,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	for _, hdr := range securityHeaders {
		r.Use(middleware.SetHeader(hdr[0], hdr[1]))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			zap.L().Error("failed to encode health check response", zap.Error(err))
		}
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}
		h.Register(r)
	})

	return r
}
