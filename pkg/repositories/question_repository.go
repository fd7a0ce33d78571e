package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/models"
)

// QuestionRepository provides data access for questions and the filtered
// allocation queue.
type QuestionRepository interface {
	// Create inserts a question. Used by ingestion and tests; the review
	// engine itself never creates questions.
	Create(ctx context.Context, question *models.Question) error

	// GetByID returns a question or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error)

	// UpdateStatus sets the question status inside the caller's transaction.
	UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status models.QuestionStatus) error

	// IncrementAnswersCount bumps the total answer count inside the
	// caller's transaction.
	IncrementAnswersCount(ctx context.Context, q database.Querier, id uuid.UUID) error

	// List returns one page of the filtered allocation queue, ordered by
	// creation time ascending then id for a stable narrative order.
	List(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error)

	// PageIndex resolves the 1-based page number a question occupies under
	// the given filter and page size, or apperrors.ErrNotFound if the
	// question does not match the filter.
	PageIndex(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error)
}

type questionRepository struct {
	db *database.DB
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db *database.DB) QuestionRepository {
	return &questionRepository{db: db}
}

var _ QuestionRepository = (*questionRepository)(nil)

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	now := time.Now()
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	if question.Status == "" {
		question.Status = models.QuestionStatusOpen
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	query := `
		INSERT INTO questions (
			id, text, status, priority, source, state, district, crop, season, domain,
			total_answers_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		question.ID, question.Text, question.Status, question.Priority, question.Source,
		question.Details.State, question.Details.District, question.Details.Crop,
		question.Details.Season, question.Details.Domain,
		question.TotalAnswersCount, question.CreatedAt, question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	query := `
		SELECT id, text, status, priority, source, state, district, crop, season, domain,
		       total_answers_count, created_at, updated_at
		FROM questions
		WHERE id = $1`

	question := &models.Question{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&question.ID, &question.Text, &question.Status, &question.Priority, &question.Source,
		&question.Details.State, &question.Details.District, &question.Details.Crop,
		&question.Details.Season, &question.Details.Domain,
		&question.TotalAnswersCount, &question.CreatedAt, &question.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (r *questionRepository) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status models.QuestionStatus) error {
	tag, err := q.Exec(ctx,
		`UPDATE questions SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update question status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *questionRepository) IncrementAnswersCount(ctx context.Context, q database.Querier, id uuid.UUID) error {
	_, err := q.Exec(ctx,
		`UPDATE questions SET total_answers_count = total_answers_count + 1, updated_at = now() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("failed to increment answers count: %w", err)
	}
	return nil
}

func (r *questionRepository) List(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error) {
	if page < 1 {
		page = 1
	}
	where, args := buildAllocationWhere(filter)

	var total int
	countQuery := `SELECT count(*) FROM questions q ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT q.id, q.text, q.status, q.priority, q.source, q.state, q.district, q.crop,
		       q.season, q.domain, q.total_answers_count, q.created_at
		FROM questions q
		%s
		ORDER BY q.created_at, q.id
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	items := make([]models.QuestionSummary, 0, pageSize)
	for rows.Next() {
		var s models.QuestionSummary
		if err := rows.Scan(
			&s.ID, &s.Text, &s.Status, &s.Priority, &s.Source,
			&s.Details.State, &s.Details.District, &s.Details.Crop,
			&s.Details.Season, &s.Details.Domain,
			&s.TotalAnswersCount, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question summary: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return &models.QuestionPage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		HasNext:    page*pageSize < total,
	}, nil
}

func (r *questionRepository) PageIndex(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error) {
	where, args := buildAllocationWhere(filter)

	query := fmt.Sprintf(`
		SELECT rn FROM (
			SELECT q.id, row_number() OVER (ORDER BY q.created_at, q.id) AS rn
			FROM questions q
			%s
		) ranked
		WHERE ranked.id = $%d`, where, len(args)+1)
	args = append(args, questionID)

	var rowNum int
	err := r.db.QueryRow(ctx, query, args...).Scan(&rowNum)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("question %s not in filtered queue: %w", questionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve page index: %w", err)
	}
	return (rowNum-1)/pageSize + 1, nil
}

// buildAllocationWhere renders the allocation filter into a WHERE clause
// with positional args. The reroute action type narrows the supply to
// questions with a pending escalation.
func buildAllocationWhere(filter models.AllocationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "q.status = ANY("+arg(statuses)+")")
	}
	if filter.Source != "" {
		conds = append(conds, "q.source = "+arg(filter.Source))
	}
	if filter.State != "" {
		conds = append(conds, "q.state = "+arg(filter.State))
	}
	if filter.Crop != "" {
		conds = append(conds, "q.crop = "+arg(filter.Crop))
	}
	if filter.Domain != "" {
		conds = append(conds, "q.domain = "+arg(filter.Domain))
	}
	if filter.Priority != "" {
		conds = append(conds, "q.priority = "+arg(string(filter.Priority)))
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, "q.created_at >= "+arg(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "q.created_at <= "+arg(*filter.CreatedBefore))
	}
	if filter.MinAnswers != nil {
		conds = append(conds, "q.total_answers_count >= "+arg(*filter.MinAnswers))
	}
	if filter.MaxAnswers != nil {
		conds = append(conds, "q.total_answers_count <= "+arg(*filter.MaxAnswers))
	}
	if filter.ReviewLevel > 0 {
		// Review level N means the question has accumulated at least N
		// answer iterations.
		conds = append(conds, `(
			SELECT count(*) FROM submissions s
			JOIN history_items h ON h.submission_id = s.id
			WHERE s.question_id = q.id AND h.answer_id IS NOT NULL
		) >= `+arg(filter.ReviewLevel))
	}

	switch filter.ActionType {
	case models.ActionTypeReroute:
		cond := "EXISTS (SELECT 1 FROM reroutes rr WHERE rr.question_id = q.id AND rr.status = 'pending'"
		if filter.UserID != uuid.Nil {
			cond += " AND rr.rerouted_to = " + arg(filter.UserID)
		}
		cond += ")"
		conds = append(conds, cond)
	default:
		if filter.UserID != uuid.Nil {
			conds = append(conds, `EXISTS (
				SELECT 1 FROM submissions s
				JOIN history_items h ON h.submission_id = s.id
				WHERE s.question_id = q.id AND h.updated_by = `+arg(filter.UserID)+")")
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
