package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
)

// MockParcelRepo is a mock implementation of port.ParcelRepository.
type MockParcelRepo struct {
	mock.Mock
}

func (m *MockParcelRepo) Create(ctx context.Context, parcel *domain.ParcelRecord) error {
	args := m.Called(ctx, parcel)
	return args.Error(0)
}

func (m *MockParcelRepo) GetByID(ctx context.Context, id string) (*domain.ParcelRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParcelRecord), args.Error(1)
}

func (m *MockParcelRepo) List(ctx context.Context, offset, limit int) ([]domain.ParcelRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParcelRecord), args.Int(1), args.Error(2)
}

func (m *MockParcelRepo) ListAll(ctx context.Context) ([]domain.ParcelRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ParcelRecord), args.Error(1)
}

func (m *MockParcelRepo) UpdatePOD(ctx context.Context, parcel *domain.ParcelRecord) error {
	args := m.Called(ctx, parcel)
	return args.Error(0)
}

func (m *MockParcelRepo) SetPODObjectKey(ctx context.Context, id, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}
