package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/port"
)

const defaultAttemptTimeout = 60 * time.Second

// circuitState tracks rate-limit backoff for a single variant.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// Binding pairs a chain variant with the backend that serves it.
type Binding struct {
	Variant config.Variant
	Backend port.ExtractionBackend
}

// Output is the result of the first variant that answered.
type Output struct {
	Modality domain.Modality
	Variant  config.Variant
	// Fields is nil when the response was not a structured record.
	Fields   map[string]any
	Raw      string
	Attempts []domain.ExtractionAttempt
}

// Parsed reports whether the response decoded into a structured record.
func (o *Output) Parsed() bool { return o.Fields != nil }

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLimiter shares a rate limiter across attempts.
func WithLimiter(l *rate.Limiter) ChainOption {
	return func(c *Chain) { c.limiter = l }
}

// WithAttemptTimeout bounds every single attempt.
func WithAttemptTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxTokens sets the output token budget per attempt.
func WithMaxTokens(n int) ChainOption {
	return func(c *Chain) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// Chain tries the variants of one modality in order. A variant is never
// retried; a failure only moves the chain to the next variant.
type Chain struct {
	modality    domain.Modality
	bindings    []Binding
	circuits    []*circuitState
	decoder     *Decoder
	instruction string
	limiter     *rate.Limiter
	timeout     time.Duration
	maxTokens   int
}

// NewChain creates a Chain for a modality.
func NewChain(m domain.Modality, bindings []Binding, decoder *Decoder, opts ...ChainOption) *Chain {
	circuits := make([]*circuitState, len(bindings))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	c := &Chain{
		modality:    m,
		bindings:    bindings,
		circuits:    circuits,
		decoder:     decoder,
		instruction: BuildPODPrompt(domain.PODSchema, m),
		timeout:     defaultAttemptTimeout,
		maxTokens:   1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Modality returns the chain's modality.
func (c *Chain) Modality() domain.Modality { return c.modality }

// Len returns the number of variants.
func (c *Chain) Len() int { return len(c.bindings) }

// Run sends the payload in req (Text, or Image and MediaType) to each variant
// until one answers. The first answer ends the chain whether or not it
// decodes. When every variant fails it returns an *UnavailableError. A 401 or
// 403 from any provider aborts with domain.ErrConfiguration, and cancellation of
// ctx aborts with ctx.Err().
func (c *Chain) Run(ctx context.Context, req port.ExtractionRequest) (*Output, error) {
	req.Instruction = c.instruction
	req.MaxTokens = c.maxTokens

	var attempts []domain.ExtractionAttempt
	for i, b := range c.bindings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		att := domain.ExtractionAttempt{
			Backend:  domain.BackendFor(c.modality),
			Provider: b.Variant.Provider,
			Model:    b.Variant.Model,
		}

		if resetAt, open := c.circuits[i].isOpenWithReset(time.Now()); open {
			zap.L().Info("parser.Chain: skipping variant, circuit open",
				zap.String("variant", b.Variant.String()), zap.Time("reset_at", resetAt))
			att.Outcome = domain.AttemptRejected
			att.Error = "rate limited until " + resetAt.Format(time.RFC3339)
			attempts = append(attempts, att)
			continue
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				att.Outcome = domain.AttemptTransportError
				att.Error = err.Error()
				attempts = append(attempts, att)
				continue
			}
		}

		req.Model = b.Variant.Model
		start := time.Now()
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := b.Backend.Complete(actx, req)
		cancel()
		att.Duration = time.Since(start)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, domain.ErrConfiguration) {
				return nil, fmt.Errorf("parser.Chain: %s: %w", b.Variant, err)
			}
			var rlErr *RateLimitError
			if errors.As(err, &rlErr) {
				c.circuits[i].open(time.Now().Add(rlErr.RetryAfter))
			}
			att.Outcome = classify(err)
			att.Error = err.Error()
			attempts = append(attempts, att)
			zap.L().Warn("parser.Chain: variant failed",
				zap.String("modality", string(c.modality)),
				zap.String("variant", b.Variant.String()),
				zap.String("outcome", string(att.Outcome)),
				zap.Error(err))
			continue
		}

		if strings.TrimSpace(resp.Text) == "" {
			att.Outcome = domain.AttemptRejected
			att.Error = "empty response"
			attempts = append(attempts, att)
			zap.L().Warn("parser.Chain: variant returned empty response",
				zap.String("variant", b.Variant.String()))
			continue
		}

		att.Outcome = domain.AttemptSuccess
		att.Response = resp.Text
		attempts = append(attempts, att)

		out := &Output{
			Modality: c.modality,
			Variant:  b.Variant,
			Raw:      resp.Text,
			Attempts: attempts,
		}
		fields, derr := c.decoder.Decode(resp.Text)
		if derr != nil {
			zap.L().Info("parser.Chain: response not structured, raw text kept",
				zap.String("variant", b.Variant.String()), zap.Error(derr))
			return out, nil
		}
		out.Fields = fields
		return out, nil
	}

	return nil, &UnavailableError{Modality: c.modality, Attempts: attempts}
}

func classify(err error) domain.AttemptOutcome {
	var (
		statusErr *StatusError
		rlErr     *RateLimitError
	)
	if errors.As(err, &statusErr) || errors.As(err, &rlErr) || errors.Is(err, ErrMalformedResponse) {
		return domain.AttemptRejected
	}
	return domain.AttemptTransportError
}
