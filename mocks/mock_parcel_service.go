package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
	"podrecon/internal/service"
)

// MockParcelService is a mock implementation of service.ParcelService.
type MockParcelService struct {
	mock.Mock
}

func (m *MockParcelService) Create(ctx context.Context, input service.CreateParcelInput) (*domain.ParcelRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParcelRecord), args.Error(1)
}

func (m *MockParcelService) GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParcelRecord), args.Error(1)
}

func (m *MockParcelService) List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParcelRecord), args.Int(1), args.Error(2)
}

func (m *MockParcelService) GetPODDownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
