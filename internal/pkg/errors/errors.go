package errors

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalid               = errors.New("invalid")
	ErrUnsupportedType       = errors.New("unsupported file type")
	ErrTooLarge              = errors.New("file too large")
	ErrEmptyDocument         = errors.New("document produced no chunks")
	ErrEmbeddingUnavailable  = errors.New("embedding provider unavailable")
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
	ErrIO                    = errors.New("io failure")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a bad-input condition that should be
// surfaced to the caller rather than logged as a system fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalid) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrEmptyDocument)
}

// IsCapability reports whether err means an external AI capability was
// unreachable or misconfigured.
func IsCapability(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) || errors.Is(err, ErrGenerationUnavailable)
}
