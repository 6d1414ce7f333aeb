package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the full handler tree: /health and /metrics at the root and
// the API under the configured prefix.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(collectMetrics)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	api := func(r chi.Router) {
		if s.requestTimeout > 0 {
			r.Use(middleware.Timeout(s.requestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/refresh", s.refresh)
			r.Post("/federated-login", s.federatedLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Get("/me", s.me)
				r.Post("/me/avatar", s.avatarUploadURL)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/goals", func(r chi.Router) {
				r.Post("/", s.createGoal)
				r.Get("/", s.listGoals)
				r.Get("/summary", s.goalSummary)
				r.Get("/{id}", s.getGoal)
				r.Put("/{id}", s.updateGoal)
				r.Delete("/{id}", s.deleteGoal)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", s.postTransaction)
				r.Get("/", s.listTransactions)
				r.Get("/{goal_id}", s.listGoalTransactions)
			})
		})
	}

	if s.apiPrefix == "" || s.apiPrefix == "/" {
		r.Group(api)
	} else {
		r.Route(s.apiPrefix, api)
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
