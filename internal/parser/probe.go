package parser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podrecon/internal/domain"
	"podrecon/internal/port"
)

const probeInstruction = "Reply with the single word OK."

// ProbeResult is the availability of one variant. Unauthorized is set when
// the provider rejected the credentials.
type ProbeResult struct {
	Modality     domain.Modality `json:"modality"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Available    bool            `json:"available"`
	Unauthorized bool            `json:"unauthorized,omitempty"`
	Error        string          `json:"error,omitempty"`
	Latency      time.Duration   `json:"latency_ns"`
}

// Probe sends a minimal request to every variant, ignoring rate-limit
// circuits, and reports which ones answer.
func (c *Chain) Probe(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, 0, len(c.bindings))
	for _, b := range c.bindings {
		res := ProbeResult{Modality: c.modality, Provider: b.Variant.Provider, Model: b.Variant.Model}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				res.Error = err.Error()
				results = append(results, res)
				continue
			}
		}
		start := time.Now()
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		_, err := b.Backend.Complete(actx, port.ExtractionRequest{
			Model:       b.Variant.Model,
			Instruction: probeInstruction,
			MaxTokens:   10,
		})
		cancel()
		res.Latency = time.Since(start)
		if err != nil {
			res.Error = err.Error()
			res.Unauthorized = errors.Is(err, domain.ErrConfiguration)
		} else {
			res.Available = true
		}
		results = append(results, res)
	}
	return results
}

// CheckProbe returns domain.ErrConfiguration when any variant was
// unauthorized or no variant answered.
func CheckProbe(results []ProbeResult) error {
	if len(results) == 0 {
		return nil
	}
	available := 0
	for _, r := range results {
		if r.Unauthorized {
			return fmt.Errorf("%w: %s:%s rejected the credentials", domain.ErrConfiguration, r.Provider, r.Model)
		}
		if r.Available {
			available++
		}
	}
	if available == 0 {
		return fmt.Errorf("%w: none of %d variant(s) answered, last error: %s",
			domain.ErrConfiguration, len(results), results[len(results)-1].Error)
	}
	return nil
}
