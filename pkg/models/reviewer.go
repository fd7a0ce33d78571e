package models

import (
	"context"

	"github.com/google/uuid"
)

// ReviewerRole is the role a reviewer acts under.
type ReviewerRole string

const (
	RoleExpert    ReviewerRole = "expert"
	RoleModerator ReviewerRole = "moderator"
	RoleAdmin     ReviewerRole = "admin"
)

// IsValidReviewerRole checks if the given role is valid.
func IsValidReviewerRole(r ReviewerRole) bool {
	return r == RoleExpert || r == RoleModerator || r == RoleAdmin
}

// ReviewerIdentity identifies the reviewer performing an action. It is
// established at the authentication boundary and carried through operations
// in the request context.
type ReviewerIdentity struct {
	ID   uuid.UUID    `json:"id"`
	Name string       `json:"name,omitempty"`
	Role ReviewerRole `json:"role"`
}

type reviewerContextKey struct{}

// WithReviewer stores the reviewer identity in the context.
func WithReviewer(ctx context.Context, reviewer ReviewerIdentity) context.Context {
	return context.WithValue(ctx, reviewerContextKey{}, reviewer)
}

// ReviewerFromContext retrieves the reviewer identity from the context.
// Returns false if no identity is present.
func ReviewerFromContext(ctx context.Context) (ReviewerIdentity, bool) {
	reviewer, ok := ctx.Value(reviewerContextKey{}).(ReviewerIdentity)
	return reviewer, ok
}
