package parser

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"podrecon/internal/config"
	"podrecon/internal/domain"
	"podrecon/internal/port"
)

// Extractor selects the modality for a document and runs its chain.
type Extractor struct {
	text   *Chain
	vision *Chain
}

// NewExtractor creates an Extractor from a text chain and a vision chain.
// Either may be nil, in which case that modality is unavailable.
func NewExtractor(text, vision *Chain) *Extractor {
	return &Extractor{text: text, vision: vision}
}

// NewExtractorFromConfig builds both chains from configuration using the
// registered providers. One rate limiter is shared by every attempt.
func NewExtractorFromConfig(cfg *config.ExtractionConfig) (*Extractor, error) {
	decoder, err := NewDecoder(domain.PODSchema)
	if err != nil {
		return nil, fmt.Errorf("parser.NewExtractorFromConfig: %w", err)
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	backends := map[string]port.ExtractionBackend{}
	bind := func(variants []config.Variant) ([]Binding, error) {
		out := make([]Binding, 0, len(variants))
		for _, v := range variants {
			backend, ok := backends[v.Provider]
			if !ok {
				pc, known := cfg.Provider(v.Provider)
				if !known {
					return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrConfiguration, v.Provider)
				}
				backend, err = NewBackend(pc)
				if err != nil {
					return nil, err
				}
				backends[v.Provider] = backend
			}
			out = append(out, Binding{Variant: v, Backend: backend})
		}
		return out, nil
	}

	opts := []ChainOption{
		WithLimiter(limiter),
		WithAttemptTimeout(cfg.AttemptTimeout),
		WithMaxTokens(cfg.MaxTokens),
	}
	textBindings, err := bind(cfg.TextVariants)
	if err != nil {
		return nil, fmt.Errorf("parser.NewExtractorFromConfig: text variants: %w", err)
	}
	visionBindings, err := bind(cfg.VisionVariants)
	if err != nil {
		return nil, fmt.Errorf("parser.NewExtractorFromConfig: vision variants: %w", err)
	}

	return NewExtractor(
		NewChain(domain.ModalityText, textBindings, decoder, opts...),
		NewChain(domain.ModalityVision, visionBindings, decoder, opts...),
	), nil
}

// ExtractText runs the text modality over text recovered from a document.
func (e *Extractor) ExtractText(ctx context.Context, text string) (*Output, error) {
	if e.text == nil {
		return nil, &UnavailableError{Modality: domain.ModalityText}
	}
	return e.text.Run(ctx, port.ExtractionRequest{Text: text})
}

// ExtractImage runs the vision modality over an image document. PDFs are
// never eligible.
func (e *Extractor) ExtractImage(ctx context.Context, doc domain.RawDocument) (*Output, error) {
	if doc.IsPDF() {
		return nil, domain.ErrPDFNotVisionEligible
	}
	if !doc.IsImage() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, doc.MediaType)
	}
	if e.vision == nil {
		return nil, &UnavailableError{Modality: domain.ModalityVision}
	}
	return e.vision.Run(ctx, port.ExtractionRequest{Image: doc.Content, MediaType: doc.MediaType})
}

// Probe reports availability of every configured variant.
func (e *Extractor) Probe(ctx context.Context) []ProbeResult {
	var out []ProbeResult
	for _, c := range []*Chain{e.text, e.vision} {
		if c != nil {
			out = append(out, c.Probe(ctx)...)
		}
	}
	return out
}

// Preflight probes every variant and fails with domain.ErrConfiguration when
// the capability is unauthorized or unreachable.
func (e *Extractor) Preflight(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return CheckProbe(e.Probe(ctx))
}
