package workbench

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/models"
)

// Paginator supplies the allocation queue page by page: monotonic forward
// fetches that append, never re-fetch, plus jump-to-question resolution.
// It is driven from the session's event loop and is not safe for
// concurrent use.
type Paginator struct {
	api      ReviewAPI
	filter   models.AllocationFilter
	pageSize int

	items    []models.QuestionSummary
	nextPage int
	hasNext  bool
}

// NewPaginator creates a paginator over the given filter. Nothing is
// fetched until FetchNextPage.
func NewPaginator(api ReviewAPI, filter models.AllocationFilter, pageSize int) *Paginator {
	return &Paginator{
		api:      api,
		filter:   filter,
		pageSize: pageSize,
		nextPage: 1,
		hasNext:  true,
	}
}

// Items returns all questions loaded so far, in queue order.
func (p *Paginator) Items() []models.QuestionSummary {
	return p.items
}

// HasNextPage reports whether another forward fetch can yield more items.
func (p *Paginator) HasNextPage() bool {
	return p.hasNext
}

// FetchNextPage loads the next page and appends its items. Returns the
// newly appended items; an empty slice when the queue is exhausted.
func (p *Paginator) FetchNextPage(ctx context.Context) ([]models.QuestionSummary, error) {
	if !p.hasNext {
		return nil, nil
	}

	page, err := p.api.ListAllocatedQuestions(ctx, p.filter, p.nextPage, p.pageSize)
	if err != nil {
		return nil, err
	}

	p.items = append(p.items, page.Items...)
	p.nextPage++
	p.hasNext = page.HasNext
	return page.Items, nil
}

// JumpToQuestion makes the target question part of the loaded queue,
// fetching forward until its page (resolved server-side) is reached. If
// the queue is exhausted without finding it, the first loaded item is
// returned as the fallback selection.
func (p *Paginator) JumpToQuestion(ctx context.Context, questionID uuid.UUID) (models.QuestionSummary, error) {
	if item, ok := p.find(questionID); ok {
		return item, nil
	}

	targetPage, err := p.api.QuestionPageIndex(ctx, p.filter, questionID, p.pageSize)
	if err != nil {
		return models.QuestionSummary{}, err
	}

	for p.hasNext && p.nextPage <= targetPage {
		if _, err := p.FetchNextPage(ctx); err != nil {
			return models.QuestionSummary{}, err
		}
	}

	if item, ok := p.find(questionID); ok {
		return item, nil
	}
	if len(p.items) > 0 {
		return p.items[0], nil
	}
	return models.QuestionSummary{}, fmt.Errorf("question %s: %w", questionID, apperrors.ErrNotFound)
}

// Reset drops loaded pages and starts over with a new filter. Used when
// the reviewer changes queue filters or after a submit refreshes the queue.
func (p *Paginator) Reset(filter models.AllocationFilter) {
	p.filter = filter
	p.items = nil
	p.nextPage = 1
	p.hasNext = true
}

// Filter returns the active filter.
func (p *Paginator) Filter() models.AllocationFilter {
	return p.filter
}

func (p *Paginator) find(questionID uuid.UUID) (models.QuestionSummary, bool) {
	for _, item := range p.items {
		if item.ID == questionID {
			return item, true
		}
	}
	return models.QuestionSummary{}, false
}
