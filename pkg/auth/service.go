package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInsufficientRole     = errors.New("insufficient role")
)

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling
// and token validation, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a bearer JWT from the
	// Authorization header. Returns the reviewer identity the token
	// asserts, or an error.
	ValidateRequest(r *http.Request) (models.ReviewerIdentity, error)

	// RequireRole checks the reviewer holds one of the given roles.
	// Admins pass every check.
	RequireRole(reviewer models.ReviewerIdentity, roles ...models.ReviewerRole) error
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger,
	}
}

func (s *authService) ValidateRequest(r *http.Request) (models.ReviewerIdentity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return models.ReviewerIdentity{}, ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return models.ReviewerIdentity{}, ErrInvalidAuthFormat
	}

	claims, err := s.jwksClient.ValidateToken(parts[1])
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return models.ReviewerIdentity{}, err
	}

	reviewer, err := claims.ReviewerIdentity()
	if err != nil {
		s.logger.Debug("JWT claims rejected",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return models.ReviewerIdentity{}, err
	}

	return reviewer, nil
}

func (s *authService) RequireRole(reviewer models.ReviewerIdentity, roles ...models.ReviewerRole) error {
	if reviewer.Role == models.RoleAdmin {
		return nil
	}
	for _, role := range roles {
		if reviewer.Role == role {
			return nil
		}
	}
	return ErrInsufficientRole
}

// Ensure authService implements AuthService at compile time.
var _ AuthService = (*authService)(nil)
