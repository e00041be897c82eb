package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrParcelNotFound      = errors.New("parcel not found")
	ErrDuplicateParcel     = errors.New("parcel already exists")
	ErrInvalidParcel       = errors.New("parcel id is required")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrPODNotArchived      = errors.New("parcel has no archived proof of delivery")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyBatch          = errors.New("batch contains no documents")
	ErrTooManyFiles        = errors.New("batch exceeds maximum number of files")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Extraction pipeline errors. Everything except ErrConfiguration is local to
// a single document.
var (
	ErrConfiguration         = errors.New("extraction capability is unreachable or unauthorized")
	ErrNoExtractableText     = errors.New("pdf has no extractable text layer")
	ErrExtractionUnavailable = errors.New("all extraction backends failed")
	ErrEmptyExtraction       = errors.New("extraction produced no usable field")
	ErrPDFNotVisionEligible  = errors.New("pdf documents cannot be sent to the vision modality")
)
