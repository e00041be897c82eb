package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/port"
)

// MockExtractionBackend is a mock implementation of port.ExtractionBackend.
type MockExtractionBackend struct {
	mock.Mock
}

func (m *MockExtractionBackend) Complete(ctx context.Context, req port.ExtractionRequest) (*port.ExtractionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionResponse), args.Error(1)
}
