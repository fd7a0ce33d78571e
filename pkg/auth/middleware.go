package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/audit"
	"github.com/cropdesk/review-engine/pkg/models"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates token validation to AuthService.
type Middleware struct {
	authService AuthService
	auditor     *audit.Auditor
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
// auditor may be nil to disable audit logging.
func NewMiddleware(authService AuthService, auditor *audit.Auditor, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		auditor:     auditor,
		logger:      logger,
	}
}

// RequireAuth validates the bearer JWT and puts the reviewer identity in
// the request context for downstream handlers and services.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewer, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.audit(r, err.Error())
			m.unauthorized(w, "Authentication required")
			return
		}

		next(w, r.WithContext(models.WithReviewer(r.Context(), reviewer)))
	}
}

// RequireRole validates the bearer JWT and additionally requires one of
// the given roles. Use for endpoints like reroute escalation that only
// moderators may call.
func (m *Middleware) RequireRole(roles ...models.ReviewerRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			reviewer, err := m.authService.ValidateRequest(r)
			if err != nil {
				m.audit(r, err.Error())
				m.unauthorized(w, "Authentication required")
				return
			}

			if err := m.authService.RequireRole(reviewer, roles...); err != nil {
				m.audit(r, err.Error())
				m.forbidden(w, "Insufficient role")
				return
			}

			next(w, r.WithContext(models.WithReviewer(r.Context(), reviewer)))
		}
	}
}

func (m *Middleware) audit(r *http.Request, reason string) {
	if m.auditor != nil {
		m.auditor.LogAuthFailure(r.URL.Path, reason, r.RemoteAddr)
	}
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	}); err != nil {
		m.logger.Error("Failed to write unauthorized response", zap.Error(err))
	}
}

func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "forbidden",
		"message": message,
	}); err != nil {
		m.logger.Error("Failed to write forbidden response", zap.Error(err))
	}
}
