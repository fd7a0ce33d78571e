package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/audit"
	"github.com/cropdesk/review-engine/pkg/diff"
	"github.com/cropdesk/review-engine/pkg/gate"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/repositories"
)

// QuestionWithLedger bundles a question with its submission ledger and the
// display status derived from it.
type QuestionWithLedger struct {
	Question      *models.Question      `json:"question"`
	Submission    *models.Submission    `json:"submission"`
	DisplayStatus models.QuestionStatus `json:"display_status"`
	Reroute       *models.Reroute       `json:"reroute,omitempty"`
}

// ReviewService is the answer lifecycle state machine. Every transition
// appends to the history ledger and updates the question status in a
// single transaction; ledger entries are never edited.
type ReviewService interface {
	// GetQuestion loads a question with its full ledger. The ledger is
	// empty (not an error) for questions nothing has been submitted to.
	GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*QuestionWithLedger, error)

	// SubmitInitialAnswer opens a fresh review iteration. Only valid when
	// the ledger is empty or its tail is resolved.
	SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error)

	// Accept approves the answer under review and closes the question.
	Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error)

	// Reject rejects the answer under review and, in the same logical
	// submission, appends the reviewer's replacement answer as the new
	// pending iteration.
	Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error)

	// Modify replaces the answer under review with the reviewer's revised
	// version, recording a word-level diff against the prior text.
	Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error)
}

// ReviewServiceDeps contains dependencies for ReviewService.
type ReviewServiceDeps struct {
	QuestionRepo   repositories.QuestionRepository
	SubmissionRepo repositories.SubmissionRepository
	RerouteRepo    repositories.RerouteRepository
	DB             TxRunner
	DelayedAfter   time.Duration
	Auditor        *audit.Auditor
	Logger         *zap.Logger
}

type reviewService struct {
	questionRepo   repositories.QuestionRepository
	submissionRepo repositories.SubmissionRepository
	rerouteRepo    repositories.RerouteRepository
	db             TxRunner
	delayedAfter   time.Duration
	auditor        *audit.Auditor
	logger         *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(deps *ReviewServiceDeps) ReviewService {
	return &reviewService{
		questionRepo:   deps.QuestionRepo,
		submissionRepo: deps.SubmissionRepo,
		rerouteRepo:    deps.RerouteRepo,
		db:             deps.DB,
		delayedAfter:   deps.DelayedAfter,
		auditor:        deps.Auditor,
		logger:         deps.Logger,
	}
}

var _ ReviewService = (*reviewService)(nil)

func (s *reviewService) GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*QuestionWithLedger, error) {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	submission, err := s.loadOrEmptySubmission(ctx, questionID)
	if err != nil {
		return nil, err
	}

	result := &QuestionWithLedger{
		Question:      question,
		Submission:    submission,
		DisplayStatus: submission.DeriveStatus(time.Now(), s.delayedAfter),
	}

	if actionType == models.ActionTypeReroute {
		reroute, err := s.rerouteRepo.GetPendingByQuestion(ctx, questionID)
		if err != nil {
			return nil, fmt.Errorf("question is not re-routed: %w", err)
		}
		result.Reroute = reroute
	}
	return result, nil
}

func (s *reviewService) SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error) {
	reviewer, err := requireReviewer(ctx)
	if err != nil {
		return nil, err
	}
	if err := answer.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	submission, err := s.loadOrEmptySubmission(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !submission.Resolved() {
		return nil, fmt.Errorf("%w: question already has an answer pending review", apperrors.ErrConflict)
	}

	item := &models.HistoryItem{
		Status:    models.HistoryStatusInReview,
		UpdatedBy: reviewer.ID,
		Answer: &models.Answer{
			Text:      answer.Text,
			Sources:   answer.Sources,
			Remarks:   answer.Remarks,
			AuthorID:  reviewer.ID,
			Iteration: submission.NextIteration(),
		},
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if submission.ID == uuid.Nil {
			submission.QuestionID = questionID
			if err := s.submissionRepo.Create(ctx, tx, submission); err != nil {
				return err
			}
		}
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, item, requestID); err != nil {
			return err
		}
		if err := s.questionRepo.IncrementAnswersCount(ctx, tx, questionID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, questionID, models.QuestionStatusInReview)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Initial answer submitted",
		zap.String("question_id", questionID.String()),
		zap.String("reviewer_id", reviewer.ID.String()),
		zap.Int("iteration", item.Answer.Iteration))
	s.audit(questionID, reviewer.ID, "submitted")
	return item, nil
}

func (s *reviewService) Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error) {
	reviewer, err := requireReviewer(ctx)
	if err != nil {
		return nil, err
	}

	verdict := gate.Evaluate(decision.Parameters, models.ActionAccepted)
	if verdict.DisablesSubmit() && !decision.Override {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}

	submission, reviewable, err := s.loadReviewable(ctx, decision.QuestionID, decision.ReviewingAnswerID)
	if err != nil {
		return nil, err
	}

	item := &models.HistoryItem{
		Status:         models.HistoryStatusApproved,
		UpdatedBy:      reviewer.ID,
		ApprovedAnswer: &reviewable.Answer.ID,
		Review: &models.Review{
			Parameters: decision.Parameters,
			Action:     models.ActionAccepted,
		},
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, item, decision.RequestID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, decision.QuestionID, models.QuestionStatusClosed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer accepted",
		zap.String("question_id", decision.QuestionID.String()),
		zap.String("answer_id", reviewable.Answer.ID.String()),
		zap.String("reviewer_id", reviewer.ID.String()))
	s.audit(decision.QuestionID, reviewer.ID, "accepted")
	return item, nil
}

func (s *reviewService) Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error) {
	reviewer, err := requireReviewer(ctx)
	if err != nil {
		return nil, err
	}

	verdict := gate.Evaluate(decision.Parameters, models.ActionRejected)
	if !verdict.OK() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}

	submission, reviewable, err := s.loadReviewable(ctx, decision.QuestionID, decision.ReviewingAnswerID)
	if err != nil {
		return nil, err
	}

	rejection := &models.HistoryItem{
		Status:         models.HistoryStatusRejected,
		UpdatedBy:      reviewer.ID,
		RejectedAnswer: &reviewable.Answer.ID,
		Review: &models.Review{
			Parameters: decision.Parameters,
			Reason:     decision.Reason,
			Action:     models.ActionRejected,
		},
	}
	replacement := &models.HistoryItem{
		Status:    models.HistoryStatusInReview,
		UpdatedBy: reviewer.ID,
		Answer: &models.Answer{
			Text:      decision.Replacement.Text,
			Sources:   decision.Replacement.Sources,
			Remarks:   decision.Replacement.Remarks,
			AuthorID:  reviewer.ID,
			Iteration: submission.NextIteration(),
		},
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, rejection, decision.RequestID); err != nil {
			return err
		}
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, replacement, uuid.Nil); err != nil {
			return err
		}
		if err := s.questionRepo.IncrementAnswersCount(ctx, tx, decision.QuestionID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, decision.QuestionID, models.QuestionStatusInReview)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer rejected with replacement",
		zap.String("question_id", decision.QuestionID.String()),
		zap.String("rejected_answer_id", reviewable.Answer.ID.String()),
		zap.String("reviewer_id", reviewer.ID.String()))
	s.audit(decision.QuestionID, reviewer.ID, "rejected")
	return rejection, nil
}

func (s *reviewService) Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error) {
	reviewer, err := requireReviewer(ctx)
	if err != nil {
		return nil, err
	}

	verdict := gate.Evaluate(decision.Parameters, models.ActionModified)
	if !verdict.OK() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}

	submission, reviewable, err := s.loadReviewable(ctx, decision.QuestionID, decision.ReviewingAnswerID)
	if err != nil {
		return nil, err
	}

	item := &models.HistoryItem{
		Status:         models.HistoryStatusModified,
		UpdatedBy:      reviewer.ID,
		ModifiedAnswer: &reviewable.Answer.ID,
		Review: &models.Review{
			Parameters: decision.Parameters,
			Reason:     decision.Reason,
			Action:     models.ActionModified,
		},
		Answer: &models.Answer{
			Text:      decision.Revised.Text,
			Sources:   decision.Revised.Sources,
			Remarks:   decision.Revised.Remarks,
			AuthorID:  reviewer.ID,
			Iteration: submission.NextIteration(),
		},
		Modification: diff.Words(reviewable.Answer.Text, decision.Revised.Text),
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, item, decision.RequestID); err != nil {
			return err
		}
		if err := s.questionRepo.IncrementAnswersCount(ctx, tx, decision.QuestionID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, decision.QuestionID, models.QuestionStatusInReview)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer modified",
		zap.String("question_id", decision.QuestionID.String()),
		zap.String("modified_answer_id", reviewable.Answer.ID.String()),
		zap.String("reviewer_id", reviewer.ID.String()))
	s.audit(decision.QuestionID, reviewer.ID, "modified")
	return item, nil
}

// audit records the decision when an auditor is configured.
func (s *reviewService) audit(questionID, reviewerID uuid.UUID, action string) {
	if s.auditor != nil {
		s.auditor.LogReviewDecision(questionID, reviewerID, action)
	}
}

// loadReviewable fetches the submission and validates that the answer the
// reviewer acted on is still the one currently under review.
func (s *reviewService) loadReviewable(ctx context.Context, questionID, reviewingAnswerID uuid.UUID) (*models.Submission, *models.HistoryItem, error) {
	submission, err := s.submissionRepo.GetByQuestionID(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	reviewable := submission.ReviewableAnswer()
	if reviewable == nil {
		return nil, nil, apperrors.ErrNoReviewableAnswer
	}
	if reviewable.Answer.ID != reviewingAnswerID {
		return nil, nil, fmt.Errorf("%w: answer %s is no longer under review", apperrors.ErrConflict, reviewingAnswerID)
	}
	return submission, reviewable, nil
}

// loadOrEmptySubmission returns the question's submission, or an unsaved
// empty one when no answer has ever been submitted.
func (s *reviewService) loadOrEmptySubmission(ctx context.Context, questionID uuid.UUID) (*models.Submission, error) {
	submission, err := s.submissionRepo.GetByQuestionID(ctx, questionID)
	if err == nil {
		return submission, nil
	}
	if isNotFound(err) {
		return &models.Submission{QuestionID: questionID}, nil
	}
	return nil, err
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

func requireReviewer(ctx context.Context) (models.ReviewerIdentity, error) {
	reviewer, ok := models.ReviewerFromContext(ctx)
	if !ok {
		return models.ReviewerIdentity{}, fmt.Errorf("%w: no reviewer identity in context", apperrors.ErrValidation)
	}
	return reviewer, nil
}
