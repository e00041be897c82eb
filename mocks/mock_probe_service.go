package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"podrecon/internal/parser"
	"podrecon/internal/service"
)

// MockProbeService is a mock implementation of service.ProbeService.
type MockProbeService struct {
	mock.Mock
}

func (m *MockProbeService) Probe(ctx context.Context) *service.ProbeReport {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*service.ProbeReport)
}

// MockProber is a mock implementation of service.Prober.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context) []parser.ProbeResult {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]parser.ProbeResult)
}
