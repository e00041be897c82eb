package port

import (
	"context"
)

// ExtractionRequest is one call to a model backend. Exactly one of Text or
// Image is set.
type ExtractionRequest struct {
	Model       string
	Instruction string
	Text        string
	Image       []byte
	MediaType   string
	MaxTokens   int
}

// ExtractionResponse is the best-effort text a backend returned.
type ExtractionResponse struct {
	Text       string
	Model      string
	StopReason string
}

// ExtractionBackend abstracts the external language-model capability.
// Implementations return an error for transport failures and non-success
// responses; they never interpret the payload.
type ExtractionBackend interface {
	Complete(ctx context.Context, req ExtractionRequest) (*ExtractionResponse, error)
}

// TextExtractor turns a PDF text layer into an ordered string.
type TextExtractor interface {
	Extract(ctx context.Context, pdf []byte) (string, error)
}
