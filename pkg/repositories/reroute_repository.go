package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/models"
)

// RerouteRepository provides data access for escalations.
type RerouteRepository interface {
	// Create inserts a reroute inside the caller's transaction.
	Create(ctx context.Context, q database.Querier, reroute *models.Reroute) error

	// GetByID returns a reroute or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reroute, error)

	// GetPendingByQuestion returns the pending reroute for a question, or
	// apperrors.ErrNotFound if none is open.
	GetPendingByQuestion(ctx context.Context, questionID uuid.UUID) (*models.Reroute, error)

	// UpdateStatus transitions a reroute inside the caller's transaction.
	UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status models.RerouteStatus) error
}

type rerouteRepository struct {
	db *database.DB
}

// NewRerouteRepository creates a new RerouteRepository.
func NewRerouteRepository(db *database.DB) RerouteRepository {
	return &rerouteRepository{db: db}
}

var _ RerouteRepository = (*rerouteRepository)(nil)

func (r *rerouteRepository) Create(ctx context.Context, q database.Querier, reroute *models.Reroute) error {
	now := time.Now()
	if reroute.ID == uuid.Nil {
		reroute.ID = uuid.New()
	}
	if reroute.Status == "" {
		reroute.Status = models.RerouteStatusPending
	}
	reroute.CreatedAt = now
	reroute.UpdatedAt = now

	_, err := q.Exec(ctx, `
		INSERT INTO reroutes (
			id, question_id, answer_id, rerouted_to, comment, moderator_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reroute.ID, reroute.QuestionID, reroute.AnswerID, reroute.ReroutedTo,
		reroute.Comment, reroute.ModeratorID, reroute.Status, reroute.CreatedAt, reroute.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reroute: %w", err)
	}
	return nil
}

func (r *rerouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reroute, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *rerouteRepository) GetPendingByQuestion(ctx context.Context, questionID uuid.UUID) (*models.Reroute, error) {
	return r.get(ctx, `WHERE question_id = $1 AND status = 'pending' ORDER BY created_at DESC LIMIT 1`, questionID)
}

func (r *rerouteRepository) get(ctx context.Context, clause string, arg any) (*models.Reroute, error) {
	query := `
		SELECT id, question_id, answer_id, rerouted_to, comment, moderator_id,
		       status, created_at, updated_at
		FROM reroutes ` + clause

	reroute := &models.Reroute{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&reroute.ID, &reroute.QuestionID, &reroute.AnswerID, &reroute.ReroutedTo,
		&reroute.Comment, &reroute.ModeratorID, &reroute.Status,
		&reroute.CreatedAt, &reroute.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reroute: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reroute: %w", err)
	}
	return reroute, nil
}

func (r *rerouteRepository) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status models.RerouteStatus) error {
	tag, err := q.Exec(ctx,
		`UPDATE reroutes SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update reroute status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reroute %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}
