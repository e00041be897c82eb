// Package pipeline runs proof-of-delivery documents through text recovery,
// structured extraction, regex fallback, normalization and parcel matching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"podrecon/internal/domain"
	"podrecon/internal/matcher"
	"podrecon/internal/normalize"
	"podrecon/internal/parser"
	"podrecon/internal/port"
)

const defaultWorkers = 4

// Extractor is the structured extraction capability used by the pipeline.
type Extractor interface {
	ExtractText(ctx context.Context, text string) (*parser.Output, error)
	ExtractImage(ctx context.Context, doc domain.RawDocument) (*parser.Output, error)
	Preflight(ctx context.Context) error
}

// Outcome is the terminal result for one document. Record and Match are set
// for matched and unmatched documents; ErrorKind and Hint for failed ones.
type Outcome struct {
	Position  int                        `json:"position"`
	FileName  string                     `json:"file_name"`
	MediaType string                     `json:"media_type"`
	Status    domain.OutcomeStatus       `json:"status"`
	Modality  domain.Modality            `json:"modality,omitempty"`
	Record    *domain.ExtractedRecord    `json:"record,omitempty"`
	Match     *domain.MatchResult        `json:"match,omitempty"`
	ErrorKind domain.ErrorKind           `json:"error_kind,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Hint      string                     `json:"hint,omitempty"`
	Attempts  []domain.ExtractionAttempt `json:"attempts,omitempty"`
	Duration  time.Duration              `json:"duration_ns"`
}

// Failed reports whether the document could not be read.
func (o *Outcome) Failed() bool { return o.Status == domain.OutcomeFailed }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds the number of documents processed concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPreflight probes the extraction capability before every batch.
func WithPreflight(enabled bool) Option {
	return func(p *Pipeline) { p.preflight = enabled }
}

// WithMatcher replaces the default identifier matcher.
func WithMatcher(m *matcher.Matcher) Option {
	return func(p *Pipeline) { p.matcher = m }
}

// WithNormalizer replaces the default record normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// Pipeline processes documents against a read-only parcel collection. It
// holds no per-document state and is safe for concurrent use.
type Pipeline struct {
	text       port.TextExtractor
	extractor  Extractor
	fallback   port.RawTextParser
	normalizer *normalize.Normalizer
	matcher    *matcher.Matcher
	workers    int
	preflight  bool
}

// New creates a Pipeline.
func New(text port.TextExtractor, extractor Extractor, fallback port.RawTextParser, opts ...Option) *Pipeline {
	p := &Pipeline{
		text:       text,
		extractor:  extractor,
		fallback:   fallback,
		normalizer: normalize.New(),
		matcher:    matcher.New(),
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessBatch processes docs with a bounded worker pool and returns one
// Outcome per document in input order. Per-document failures are reported in
// the outcomes. A configuration error or cancellation of ctx aborts the batch
// and is returned with no outcomes.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []domain.RawDocument, parcels []domain.ParcelRecord) ([]Outcome, error) {
	if len(docs) == 0 {
		return []Outcome{}, nil
	}
	if p.preflight {
		if err := p.extractor.Preflight(ctx); err != nil {
			zap.L().Error("pipeline.ProcessBatch: preflight failed", zap.Error(err))
			return nil, fmt.Errorf("pipeline.ProcessBatch: preflight: %w", err)
		}
	}

	outcomes := make([]Outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			out, err := p.ProcessDocument(gctx, doc, parcels)
			if err != nil {
				return err
			}
			out.Position = i
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Warn("pipeline.ProcessBatch: batch aborted",
			zap.Int("documents", len(docs)), zap.Error(err))
		return nil, err
	}

	zap.L().Info("pipeline.ProcessBatch: batch complete",
		zap.Int("documents", len(docs)), zap.Int("parcels", len(parcels)))
	return outcomes, nil
}

// ProcessDocument runs one document through the pipeline. The returned error
// is non-nil only when the whole batch must stop: a configuration error or
// cancellation of ctx.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc domain.RawDocument, parcels []domain.ParcelRecord) (out Outcome, err error) {
	start := time.Now()
	out = Outcome{FileName: doc.FileName, MediaType: doc.MediaType}
	defer func() { out.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if !domain.AllowedMediaTypes[doc.MediaType] {
		p.fail(&out, fmt.Errorf("%s: %w", doc.MediaType, domain.ErrUnsupportedFileType))
		return out, nil
	}

	var (
		res    *parser.Output
		source string
	)
	if doc.IsPDF() {
		out.Modality = domain.ModalityText
		source, err = p.text.Extract(ctx, doc.Content)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, ctxErr
			}
			p.fail(&out, err)
			return out, nil
		}
		res, err = p.extractor.ExtractText(ctx, source)
	} else {
		out.Modality = domain.ModalityVision
		res, err = p.extractor.ExtractImage(ctx, doc)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		if errors.Is(err, domain.ErrConfiguration) {
			return out, err
		}
		var unavailable *parser.UnavailableError
		if errors.As(err, &unavailable) {
			out.Attempts = unavailable.Attempts
		}
		p.fail(&out, err)
		return out, nil
	}
	out.Attempts = res.Attempts

	raw := res.Fields
	if !res.Parsed() {
		raw = p.regexFallback(&out, res.Raw, source)
	}

	rec, err := p.normalizer.Normalize(raw)
	if err != nil {
		p.fail(&out, err)
		return out, nil
	}
	out.Record = rec

	match := p.matcher.Match(doc.FileName, rec, parcels)
	out.Match = &match
	if match.Matched {
		out.Status = domain.OutcomeMatched
	} else {
		out.Status = domain.OutcomeUnmatched
	}
	zap.L().Info("pipeline.ProcessDocument: document processed",
		zap.String("file", doc.FileName),
		zap.String("status", string(out.Status)),
		zap.String("modality", string(out.Modality)),
		zap.Int("known_fields", rec.KnownCount()),
		zap.String("reason", match.Reason))
	return out, nil
}

// regexFallback parses the unstructured model response. When the response
// yields nothing the recovered PDF text is tried as well.
func (p *Pipeline) regexFallback(out *Outcome, response, source string) map[string]any {
	raw := p.fallback.Parse(response)
	if len(raw) == 0 && source != "" {
		raw = p.fallback.Parse(source)
	}
	att := domain.ExtractionAttempt{Backend: domain.BackendRegexFallback, Outcome: domain.AttemptSuccess}
	if len(raw) == 0 {
		att.Outcome = domain.AttemptRejected
		att.Error = "no field recognised"
	}
	out.Attempts = append(out.Attempts, att)
	zap.L().Info("pipeline.ProcessDocument: structured parse failed, used regex fallback",
		zap.String("file", out.FileName), zap.Int("fields", len(raw)))
	return raw
}

func (p *Pipeline) fail(out *Outcome, err error) {
	out.Status = domain.OutcomeFailed
	out.ErrorKind = KindOf(err)
	out.Error = err.Error()
	out.Hint = out.ErrorKind.Hint()
	zap.L().Warn("pipeline.ProcessDocument: document failed",
		zap.String("file", out.FileName),
		zap.String("kind", string(out.ErrorKind)),
		zap.Error(err))
}

// KindOf maps a per-document error onto its ErrorKind.
func KindOf(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return domain.ErrorKindNone
	case errors.Is(err, domain.ErrNoExtractableText), errors.Is(err, domain.ErrPDFNotVisionEligible):
		return domain.ErrorKindNoExtractableText
	case errors.Is(err, domain.ErrExtractionUnavailable):
		return domain.ErrorKindExtractionUnavailable
	case errors.Is(err, domain.ErrEmptyExtraction):
		return domain.ErrorKindEmptyExtraction
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return domain.ErrorKindUnsupportedMediaType
	default:
		return domain.ErrorKindInternal
	}
}
