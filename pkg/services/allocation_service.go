package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/repositories"
)

// AllocationService supplies the filtered, paginated question queue
// reviewers draw from.
type AllocationService interface {
	// List returns one page of allocated questions for the filter.
	List(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error)

	// PageIndexOf resolves which page a question occupies under the
	// filter, for jump-to-question navigation.
	PageIndexOf(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error)
}

type allocationService struct {
	questionRepo    repositories.QuestionRepository
	defaultPageSize int
	logger          *zap.Logger
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(questionRepo repositories.QuestionRepository, defaultPageSize int, logger *zap.Logger) AllocationService {
	return &allocationService{
		questionRepo:    questionRepo,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

var _ AllocationService = (*allocationService)(nil)

func (s *allocationService) List(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error) {
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	return s.questionRepo.List(ctx, filter, page, pageSize)
}

func (s *allocationService) PageIndexOf(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	return s.questionRepo.PageIndex(ctx, filter, questionID, pageSize)
}
