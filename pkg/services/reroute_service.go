package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/audit"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/repositories"
)

// RerouteService manages the escalation sub-flow: moving a question's
// active review to a different reviewer pool and handling the receiving
// reviewer's decline of the escalation itself. Accept, reject, and modify
// on a re-routed answer go through the normal ReviewService.
type RerouteService interface {
	// Reroute escalates the answer under review to another reviewer pool,
	// appending a re-routed ledger entry.
	Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error)

	// RejectReroute declines the escalation itself, independent of the
	// underlying answer's quality. The question returns to the
	// originating moderator's queue.
	RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error
}

// RerouteServiceDeps contains dependencies for RerouteService.
type RerouteServiceDeps struct {
	QuestionRepo   repositories.QuestionRepository
	SubmissionRepo repositories.SubmissionRepository
	RerouteRepo    repositories.RerouteRepository
	DB             TxRunner
	Auditor        *audit.Auditor
	Logger         *zap.Logger
}

type rerouteService struct {
	questionRepo   repositories.QuestionRepository
	submissionRepo repositories.SubmissionRepository
	rerouteRepo    repositories.RerouteRepository
	db             TxRunner
	auditor        *audit.Auditor
	logger         *zap.Logger
}

// NewRerouteService creates a new RerouteService.
func NewRerouteService(deps *RerouteServiceDeps) RerouteService {
	return &rerouteService{
		questionRepo:   deps.QuestionRepo,
		submissionRepo: deps.SubmissionRepo,
		rerouteRepo:    deps.RerouteRepo,
		db:             deps.DB,
		auditor:        deps.Auditor,
		logger:         deps.Logger,
	}
}

var _ RerouteService = (*rerouteService)(nil)

func (s *rerouteService) Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error) {
	moderator, err := requireReviewer(ctx)
	if err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByQuestionID(ctx, decision.QuestionID)
	if err != nil {
		return nil, err
	}
	reviewable := submission.ReviewableAnswer()
	if reviewable == nil {
		return nil, apperrors.ErrNoReviewableAnswer
	}
	if reviewable.Answer.ID != decision.AnswerID {
		return nil, fmt.Errorf("%w: answer %s is no longer under review", apperrors.ErrConflict, decision.AnswerID)
	}

	reroute := &models.Reroute{
		QuestionID:  decision.QuestionID,
		AnswerID:    decision.AnswerID,
		ReroutedTo:  decision.ReroutedTo,
		Comment:     decision.Comment,
		ModeratorID: moderator.ID,
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.rerouteRepo.Create(ctx, tx, reroute); err != nil {
			return err
		}
		item := &models.HistoryItem{
			Status:    models.HistoryStatusRerouted,
			UpdatedBy: moderator.ID,
			Reroute: &models.RerouteInfo{
				RerouteID:   reroute.ID,
				ReroutedTo:  decision.ReroutedTo,
				Comment:     decision.Comment,
				ModeratorID: moderator.ID,
			},
		}
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, item, decision.RequestID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, decision.QuestionID, models.QuestionStatusRerouted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer re-routed",
		zap.String("question_id", decision.QuestionID.String()),
		zap.String("rerouted_to", decision.ReroutedTo.String()),
		zap.String("moderator_id", moderator.ID.String()))
	if s.auditor != nil {
		s.auditor.LogRerouteEscalation(decision.QuestionID, moderator.ID, decision.ReroutedTo)
	}
	return reroute, nil
}

func (s *rerouteService) RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error {
	expert, err := requireReviewer(ctx)
	if err != nil {
		return err
	}

	reroute, err := s.rerouteRepo.GetByID(ctx, decision.RerouteID)
	if err != nil {
		return err
	}
	if reroute.Status != models.RerouteStatusPending {
		return fmt.Errorf("%w: reroute already %s", apperrors.ErrConflict, reroute.Status)
	}
	if reroute.QuestionID != decision.QuestionID {
		return fmt.Errorf("%w: reroute does not belong to question %s", apperrors.ErrConflict, decision.QuestionID)
	}

	submission, err := s.submissionRepo.GetByQuestionID(ctx, decision.QuestionID)
	if err != nil {
		return err
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.rerouteRepo.UpdateStatus(ctx, tx, reroute.ID, models.RerouteStatusDeclined); err != nil {
			return err
		}
		// The decline is itself a ledger event. Recording it moves the
		// tail off re-routed, so the pending answer becomes actionable
		// again in the moderator's queue.
		item := &models.HistoryItem{
			Status:    models.HistoryStatusReviewed,
			UpdatedBy: expert.ID,
			Reroute: &models.RerouteInfo{
				RerouteID:   reroute.ID,
				ReroutedTo:  reroute.ReroutedTo,
				Comment:     decision.Reason,
				ModeratorID: reroute.ModeratorID,
			},
		}
		if err := s.submissionRepo.AppendHistory(ctx, tx, submission.ID, item, decision.RequestID); err != nil {
			return err
		}
		return s.questionRepo.UpdateStatus(ctx, tx, decision.QuestionID, models.QuestionStatusInReview)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Reroute declined",
		zap.String("question_id", decision.QuestionID.String()),
		zap.String("reroute_id", reroute.ID.String()),
		zap.String("expert_id", expert.ID.String()))
	return nil
}
