package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	healthuc "github.com/kailas-cloud/searchdeck/internal/usecase/health"
	resourceuc "github.com/kailas-cloud/searchdeck/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeFeatureDisabled  = "feature_disabled"
	codeUpstreamError    = "upstream_error"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the backend-for-frontend HTTP API.
type Server struct {
	sessions      *sessions
	hooks         *resourceuc.Hooks
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. newSection builds the search
// section of a new session; idle sessions are dropped after sessionTTL.
func NewServer(
	newSection func() *searchuc.Section,
	hooks *resourceuc.Hooks,
	health *healthuc.Service,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sessions: newSessions(newSection, sessionTTL),
		hooks:    hooks,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrFeatureDisabled, http.StatusNotFound, codeFeatureDisabled),
		fetchErrorHandler,
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/search/state", s.SearchState)
		r.Delete("/search", s.CancelSearch)

		r.Get("/admin/credentials", s.Credentials)
		r.Post("/admin/credentials/refresh", s.Credentials)
		r.Get("/admin/doc-boosts", s.DocumentBoosts)
		r.Post("/admin/doc-boosts/refresh", s.DocumentBoosts)
		r.Get("/admin/indexing-status", s.IndexingStatus)
		r.Post("/admin/indexing-status/refresh", s.IndexingStatus)
		r.Get("/users", s.Users)
		r.Post("/users/refresh", s.Users)
		r.Get("/admin/user-groups", s.UserGroups)
		r.Post("/admin/user-groups/refresh", s.UserGroups)
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrFeatureDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// fetchErrorHandler reports backend failures as a bad gateway.
func fetchErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	writeError(w, http.StatusBadGateway, codeUpstreamError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
