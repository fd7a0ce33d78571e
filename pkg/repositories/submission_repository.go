package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/diff"
	"github.com/cropdesk/review-engine/pkg/models"
)

// SubmissionRepository provides data access for submissions and their
// append-only history ledgers. Ledger rows are never updated or deleted.
type SubmissionRepository interface {
	// GetByQuestionID loads the submission and full ledger for a question,
	// oldest entry first. Returns apperrors.ErrNotFound if the question has
	// no submission yet.
	GetByQuestionID(ctx context.Context, questionID uuid.UUID) (*models.Submission, error)

	// Create inserts an empty submission for a question inside the
	// caller's transaction.
	Create(ctx context.Context, q database.Querier, submission *models.Submission) error

	// AppendHistory appends one ledger entry (and its answer, if present)
	// inside the caller's transaction. requestID deduplicates retried
	// submits: a second append with the same id fails with
	// apperrors.ErrConflict.
	AppendHistory(ctx context.Context, q database.Querier, submissionID uuid.UUID, item *models.HistoryItem, requestID uuid.UUID) error
}

type submissionRepository struct {
	db *database.DB
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(db *database.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

var _ SubmissionRepository = (*submissionRepository)(nil)

func (r *submissionRepository) GetByQuestionID(ctx context.Context, questionID uuid.UUID) (*models.Submission, error) {
	submission := &models.Submission{}
	err := r.db.QueryRow(ctx,
		`SELECT id, question_id, created_at, updated_at FROM submissions WHERE question_id = $1`,
		questionID,
	).Scan(&submission.ID, &submission.QuestionID, &submission.CreatedAt, &submission.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("submission for question %s: %w", questionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	query := `
		SELECT h.id, h.status, h.updated_by, h.created_at,
		       h.approved_answer, h.rejected_answer, h.modified_answer,
		       h.review, h.reroute, h.modification,
		       a.id, a.text, a.sources, a.remarks, a.approval_count,
		       a.author_id, a.iteration, a.is_final_answer, a.created_at, a.updated_at
		FROM history_items h
		LEFT JOIN answers a ON a.id = h.answer_id
		WHERE h.submission_id = $1
		ORDER BY h.seq`

	rows, err := r.db.Query(ctx, query, submission.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		submission.History = append(submission.History, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger: %w", err)
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, q database.Querier, submission *models.Submission) error {
	now := time.Now()
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	submission.CreatedAt = now
	submission.UpdatedAt = now

	_, err := q.Exec(ctx,
		`INSERT INTO submissions (id, question_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		submission.ID, submission.QuestionID, submission.CreatedAt, submission.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("submission for question %s already exists: %w", submission.QuestionID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) AppendHistory(ctx context.Context, q database.Querier, submissionID uuid.UUID, item *models.HistoryItem, requestID uuid.UUID) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	var answerID *uuid.UUID
	if item.Answer != nil {
		if err := insertAnswer(ctx, q, item.Answer); err != nil {
			return err
		}
		answerID = &item.Answer.ID
	}

	review, err := marshalNullable(item.Review)
	if err != nil {
		return fmt.Errorf("failed to encode review: %w", err)
	}
	reroute, err := marshalNullable(item.Reroute)
	if err != nil {
		return fmt.Errorf("failed to encode reroute: %w", err)
	}
	var modification []byte
	if len(item.Modification) > 0 {
		modification, err = json.Marshal(item.Modification)
		if err != nil {
			return fmt.Errorf("failed to encode modification: %w", err)
		}
	}

	var reqID *uuid.UUID
	if requestID != uuid.Nil {
		reqID = &requestID
	}

	query := `
		INSERT INTO history_items (
			id, submission_id, seq, status, updated_by, answer_id,
			approved_answer, rejected_answer, modified_answer,
			review, reroute, modification, request_id, created_at
		) VALUES (
			$1, $2,
			(SELECT coalesce(max(seq), 0) + 1 FROM history_items WHERE submission_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err = q.Exec(ctx, query,
		item.ID, submissionID, item.Status, item.UpdatedBy, answerID,
		item.ApprovedAnswer, item.RejectedAnswer, item.ModifiedAnswer,
		review, reroute, modification, reqID, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate ledger append: %w", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to append history item: %w", err)
	}

	_, err = q.Exec(ctx,
		`UPDATE submissions SET updated_at = now() WHERE id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("failed to touch submission: %w", err)
	}
	return nil
}

func insertAnswer(ctx context.Context, q database.Querier, answer *models.Answer) error {
	now := time.Now()
	if answer.ID == uuid.Nil {
		answer.ID = uuid.New()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now

	_, err := q.Exec(ctx, `
		INSERT INTO answers (
			id, text, sources, remarks, approval_count, author_id,
			iteration, is_final_answer, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		answer.ID, answer.Text, answer.Sources, answer.Remarks, answer.ApprovalCount,
		answer.AuthorID, answer.Iteration, answer.IsFinalAnswer, answer.CreatedAt, answer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert answer: %w", err)
	}
	return nil
}

func scanHistoryItem(rows pgx.Rows) (*models.HistoryItem, error) {
	var (
		item         models.HistoryItem
		review       []byte
		reroute      []byte
		modification []byte

		answerID      *uuid.UUID
		answerText    *string
		sources       []string
		remarks       *string
		approvalCount *int
		authorID      *uuid.UUID
		iteration     *int
		isFinal       *bool
		answerCreated *time.Time
		answerUpdated *time.Time
	)

	err := rows.Scan(
		&item.ID, &item.Status, &item.UpdatedBy, &item.CreatedAt,
		&item.ApprovedAnswer, &item.RejectedAnswer, &item.ModifiedAnswer,
		&review, &reroute, &modification,
		&answerID, &answerText, &sources, &remarks, &approvalCount,
		&authorID, &iteration, &isFinal, &answerCreated, &answerUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history item: %w", err)
	}

	if review != nil {
		item.Review = &models.Review{}
		if err := json.Unmarshal(review, item.Review); err != nil {
			return nil, fmt.Errorf("failed to decode review: %w", err)
		}
	}
	if reroute != nil {
		item.Reroute = &models.RerouteInfo{}
		if err := json.Unmarshal(reroute, item.Reroute); err != nil {
			return nil, fmt.Errorf("failed to decode reroute: %w", err)
		}
	}
	if modification != nil {
		var changes []diff.Change
		if err := json.Unmarshal(modification, &changes); err != nil {
			return nil, fmt.Errorf("failed to decode modification: %w", err)
		}
		item.Modification = changes
	}
	if answerID != nil {
		item.Answer = &models.Answer{
			ID:            *answerID,
			Text:          *answerText,
			Sources:       sources,
			Remarks:       *remarks,
			ApprovalCount: *approvalCount,
			AuthorID:      *authorID,
			Iteration:     *iteration,
			IsFinalAnswer: *isFinal,
			CreatedAt:     *answerCreated,
			UpdatedAt:     *answerUpdated,
		}
	}
	return &item, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *models.Review:
		if val == nil {
			return nil, nil
		}
	case *models.RerouteInfo:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
