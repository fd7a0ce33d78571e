// Package auth provides JWT-based authentication for the review engine.
// It validates tokens issued by the identity service using JWKS endpoints.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/models"
)

// Claims represents the JWT claims structure issued by the identity
// service. It embeds RegisteredClaims for standard JWT fields (sub, iss,
// exp, etc.) and adds the reviewer's display name and role.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ReviewerIdentity maps the claims to the reviewer identity the service
// layer works with. The subject must be the reviewer's UUID and the role
// must be one the engine knows.
func (c *Claims) ReviewerIdentity() (models.ReviewerIdentity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return models.ReviewerIdentity{}, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}
	role := models.ReviewerRole(c.Role)
	if !models.IsValidReviewerRole(role) {
		return models.ReviewerIdentity{}, fmt.Errorf("unknown role %q", c.Role)
	}
	return models.ReviewerIdentity{ID: id, Name: c.Name, Role: role}, nil
}
