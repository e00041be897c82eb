package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"podrecon/internal/parser"
)

// Prober reports availability of every configured extraction variant.
type Prober interface {
	Probe(ctx context.Context) []parser.ProbeResult
}

// ProbeReport is the result of probing the extraction capability.
type ProbeReport struct {
	Ready     bool                 `json:"ready"`
	Error     string               `json:"error,omitempty"`
	Results   []parser.ProbeResult `json:"results"`
	CheckedAt time.Time            `json:"checked_at"`
}

// ProbeService defines the extraction capability check.
type ProbeService interface {
	Probe(ctx context.Context) *ProbeReport
}

type probeService struct {
	prober Prober
}

// NewProbeService creates a new ProbeService implementation.
func NewProbeService(prober Prober) ProbeService {
	return &probeService{prober: prober}
}

func (s *probeService) Probe(ctx context.Context) *ProbeReport {
	results := s.prober.Probe(ctx)
	report := &ProbeReport{Ready: true, Results: results, CheckedAt: time.Now().UTC()}
	if err := parser.CheckProbe(results); err != nil {
		report.Ready = false
		report.Error = err.Error()
		zap.L().Warn("probeService.Probe: extraction capability not ready", zap.Error(err))
	}
	return report
}
