package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-capture/internal/auth"
)

// healthCheckTimeout bounds the component checks behind /health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(s.requirePermission(auth.PermStreamRead)).Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/streams", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermStreamRead)).Get("/", s.handleListStreams)
				r.With(s.requirePermission(auth.PermCaptureOperate)).Post("/{stream}/commands", s.handleSendCommand)
			})

			r.With(s.requirePermission(auth.PermCommandLogRead)).Get("/commands", s.handleListCommands)
		})
	})

	return r
}

// componentStatus values reported by /health.
const (
	componentOK        = "ok"
	componentUnhealthy = "unhealthy"
)

// handleHealth reports the server version, request counters and the state of
// each registered infrastructure component. Any unhealthy component turns the
// response into a 503 so load balancers can act on it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.health))
	for name := range s.health {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	overall := "ok"
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.health[name].HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", "component", name, "error", err)
			components[name] = componentUnhealthy
			status = http.StatusServiceUnavailable
			overall = "degraded"
			continue
		}
		components[name] = componentOK
	}

	writeJSON(w, status, map[string]any{
		"status":            overall,
		"version":           s.version,
		"components":        components,
		"statistics":        s.executor.Statistics(),
		"websocket_clients": s.hub.ClientCount(),
	})
}
