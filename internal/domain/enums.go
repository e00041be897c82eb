package domain

// Media types accepted by the extraction pipeline.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeJPEG = "image/jpeg"
	MediaTypePNG  = "image/png"
	MediaTypeGIF  = "image/gif"
	MediaTypeWebP = "image/webp"
)

// AllowedMediaTypes lists every media type a RawDocument may carry.
var AllowedMediaTypes = map[string]bool{
	MediaTypePDF:  true,
	MediaTypeJPEG: true,
	MediaTypePNG:  true,
	MediaTypeGIF:  true,
	MediaTypeWebP: true,
}

// AllowedExtensions maps file extensions (without dot) to media types.
var AllowedExtensions = map[string]string{
	"pdf":  MediaTypePDF,
	"jpg":  MediaTypeJPEG,
	"jpeg": MediaTypeJPEG,
	"png":  MediaTypePNG,
	"gif":  MediaTypeGIF,
	"webp": MediaTypeWebP,
}

// Modality is the extraction path selected from the source document type.
type Modality string

const (
	ModalityText   Modality = "text"
	ModalityVision Modality = "vision"
)

// BackendKind identifies which stage produced an ExtractionAttempt.
type BackendKind string

const (
	BackendTextModel     BackendKind = "text-model"
	BackendVisionModel   BackendKind = "vision-model"
	BackendRegexFallback BackendKind = "regex-fallback"
)

// BackendFor returns the model backend kind used by a modality.
func BackendFor(m Modality) BackendKind {
	if m == ModalityVision {
		return BackendVisionModel
	}
	return BackendTextModel
}

// AttemptOutcome is the typed result of one ExtractionAttempt.
type AttemptOutcome string

const (
	AttemptSuccess        AttemptOutcome = "success"
	AttemptRejected       AttemptOutcome = "rejected"
	AttemptTransportError AttemptOutcome = "transport-error"
)

// OutcomeStatus is the terminal state of one processed document.
type OutcomeStatus string

const (
	OutcomeMatched   OutcomeStatus = "matched"
	OutcomeUnmatched OutcomeStatus = "unmatched"
	OutcomeFailed    OutcomeStatus = "failed"
)

// ErrorKind classifies a per-document failure for the caller.
type ErrorKind string

const (
	ErrorKindNone                  ErrorKind = ""
	ErrorKindNoExtractableText     ErrorKind = "no_extractable_text"
	ErrorKindExtractionUnavailable ErrorKind = "extraction_unavailable"
	ErrorKindEmptyExtraction       ErrorKind = "empty_extraction"
	ErrorKindUnsupportedMediaType  ErrorKind = "unsupported_media_type"
	ErrorKindInternal              ErrorKind = "internal"
)

// Hint returns the remediation shown next to a failed document.
func (k ErrorKind) Hint() string {
	switch k {
	case ErrorKindNoExtractableText:
		return "the PDF is an image-only scan; re-scan it with OCR or upload the page as an image"
	case ErrorKindExtractionUnavailable:
		return "no extraction backend produced a response; retry later or check backend availability"
	case ErrorKindEmptyExtraction:
		return "no delivery fields could be read; check the document quality and orientation"
	case ErrorKindUnsupportedMediaType:
		return "upload a PDF, JPEG, PNG, GIF or WebP file"
	case ErrorKindInternal:
		return "unexpected processing error; retry the document"
	default:
		return ""
	}
}

// MatchSource records where a candidate identifier came from.
type MatchSource string

const (
	SourceFilename MatchSource = "filename"
	SourceDocument MatchSource = "document"
)
