package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
	"podrecon/internal/pipeline"
)

// MockBatchProcessor is a mock implementation of service.BatchProcessor.
type MockBatchProcessor struct {
	mock.Mock
}

func (m *MockBatchProcessor) ProcessBatch(ctx context.Context, docs []domain.RawDocument, parcels []domain.ParcelRecord) ([]pipeline.Outcome, error) {
	args := m.Called(ctx, docs, parcels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pipeline.Outcome), args.Error(1)
}
