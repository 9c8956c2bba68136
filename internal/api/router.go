package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each dependency check of GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/links", func(r chi.Router) {
			r.Get("/", s.handleListLinks)
			r.Get("/{item}/{channel}", s.handleGetLink)
			r.Put("/{item}/{channel}", s.handlePutLink)
			r.Delete("/{item}/{channel}", s.handleDeleteLink)
		})

		r.Route("/thing-links", func(r chi.Router) {
			r.Get("/", s.handleListThingLinks)
			r.Put("/{item}/{thing}", s.handlePutThingLink)
			r.Delete("/{item}/{thing}", s.handleDeleteThingLink)
		})

		r.Route("/things", func(r chi.Router) {
			r.Get("/", s.handleListThings)
			r.Get("/{thing}", s.handleGetThing)
			r.Delete("/{thing}/links", s.handleDeleteThingChannelLinks)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)

			r.Route("/{item}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Put("/", s.handlePutItem)
				r.Delete("/", s.handleDeleteItem)
				r.Get("/channels", s.handleItemChannels)
				r.Get("/things", s.handleItemThings)
			})
		})

		r.Route("/module-types", func(r chi.Router) {
			r.Get("/", s.handleListModuleTypes)
			r.Get("/{uid}", s.handleGetModuleType)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)

			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", s.handleGetRule)
				r.Delete("/", s.handleDeleteRule)
				r.Get("/modules", s.handleRuleModules)
			})
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports "ok", or "degraded" with status 503 when any
// dependency check fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.runChecks(r)

	status, code := "ok", http.StatusOK
	for _, result := range results {
		if result != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	body := map[string]any{
		"status":  status,
		"version": s.version,
	}
	if len(results) > 0 {
		body["components"] = results
	}
	writeJSON(w, code, body)
}

// runChecks checks every registered dependency in name order.
func (s *Server) runChecks(r *http.Request) map[string]string {
	if len(s.checks) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name](ctx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	return results
}
