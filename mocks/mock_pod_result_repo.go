package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
)

// MockPODResultRepo is a mock implementation of port.PODResultRepository.
type MockPODResultRepo struct {
	mock.Mock
}

func (m *MockPODResultRepo) CreateBatch(ctx context.Context, results []domain.PODResult) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

func (m *MockPODResultRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PODResult), args.Error(1)
}
