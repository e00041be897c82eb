package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
	"podrecon/internal/service"
)

// MockPODService is a mock implementation of service.PODService.
type MockPODService struct {
	mock.Mock
}

func (m *MockPODService) ProcessBatch(ctx context.Context, uploads []service.PODUpload) (*service.BatchReport, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchReport), args.Error(1)
}

func (m *MockPODService) GetBatch(ctx context.Context, batchID uuid.UUID) ([]domain.PODResult, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PODResult), args.Error(1)
}
