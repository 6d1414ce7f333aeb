package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "celengan_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "celengan_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})
)

// authenticate resolves the bearer token into a Principal. App access
// tokens are tried first; when they do not verify and an identity
// provider is configured, the token is treated as a provider ID token and
// its user is resolved or provisioned.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := identity.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			s.respondWithServiceError(w, r, err)
			return
		}

		userID, appErr := s.svc.Users.AccessTokenUserID(token)
		if appErr == nil {
			next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, Principal{UserID: userID, Source: SourceApp})))
			return
		}

		if s.svc.Verifier == nil || errors.Is(appErr, common.ErrTokenExpired) {
			s.respondWithServiceError(w, r, appErr)
			return
		}

		id, err := s.svc.Verifier.Verify(ctx, token)
		if err != nil {
			s.respondWithServiceError(w, r, err)
			return
		}
		user, err := s.svc.Users.ResolveOrProvision(ctx, id)
		if err != nil {
			s.respondWithServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, Principal{UserID: user.ID, Source: SourceProvider})))
	})
}

// requestLogger logs every request once it has been served.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", statusOf(ww),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// collectMetrics records request counts and latencies by route pattern.
func collectMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(statusOf(ww))).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
