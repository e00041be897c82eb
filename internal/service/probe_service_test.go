package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"podrecon/internal/domain"
	"podrecon/internal/parser"
	"podrecon/internal/service"
	"podrecon/mocks"
)

func TestProbeService_Ready(t *testing.T) {
	prober := new(mocks.MockProber)
	prober.On("Probe", mock.Anything).Return([]parser.ProbeResult{
		{Modality: domain.ModalityText, Provider: "claude", Model: "t1", Available: true},
		{Modality: domain.ModalityVision, Provider: "claude", Model: "v1", Error: "status 529"},
	})

	report := service.NewProbeService(prober).Probe(context.Background())

	assert.True(t, report.Ready)
	assert.Empty(t, report.Error)
	assert.Len(t, report.Results, 2)
	assert.False(t, report.CheckedAt.IsZero())
}

func TestProbeService_Unauthorized(t *testing.T) {
	prober := new(mocks.MockProber)
	prober.On("Probe", mock.Anything).Return([]parser.ProbeResult{
		{Modality: domain.ModalityText, Provider: "claude", Model: "t1", Unauthorized: true},
	})

	report := service.NewProbeService(prober).Probe(context.Background())

	assert.False(t, report.Ready)
	assert.Contains(t, report.Error, "rejected the credentials")
}
