package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
)

func TestAllocationList_DefaultsPageSize(t *testing.T) {
	svc := NewAllocationService(newMockQuestionRepo(), 10, zap.NewNop())

	page, err := svc.List(context.Background(), models.AllocationFilter{}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, page.PageSize)

	page, err = svc.List(context.Background(), models.AllocationFilter{}, 2, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, page.PageSize)
	assert.Equal(t, 2, page.Page)
}
