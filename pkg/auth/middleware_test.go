package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
)

func TestRequireAuth_SetsReviewer(t *testing.T) {
	reviewerID := uuid.New()
	svc := NewAuthService(&mockJWKSClient{claims: expertClaims(reviewerID)}, zap.NewNop())
	mw := NewMiddleware(svc, nil, zap.NewNop())

	var got models.ReviewerIdentity
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		reviewer, ok := models.ReviewerFromContext(r.Context())
		require.True(t, ok)
		got = reviewer
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	r.Header.Set("Authorization", "Bearer some.jwt.token")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reviewerID, got.ID)
}

func TestRequireAuth_Unauthorized(t *testing.T) {
	svc := NewAuthService(&mockJWKSClient{claims: expertClaims(uuid.New())}, zap.NewNop())
	mw := NewMiddleware(svc, nil, zap.NewNop())

	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized")
}

func TestRequireRole_Forbidden(t *testing.T) {
	svc := NewAuthService(&mockJWKSClient{claims: expertClaims(uuid.New())}, zap.NewNop())
	mw := NewMiddleware(svc, nil, zap.NewNop())

	handler := mw.RequireRole(models.RoleModerator)(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an expert token")
	})

	r := httptest.NewRequest(http.MethodPost, "/api/reroutes", nil)
	r.Header.Set("Authorization", "Bearer some.jwt.token")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
