package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrMalformedTimestamp marks a single unusable timecode. Callers count and skip it.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrExcessiveMalformedTimestamps is advisory: the document parsed, but too many
	// separator lines were unusable.
	ErrExcessiveMalformedTimestamps = errors.New("excessive malformed timestamps")
	ErrBoundaryNotFound             = errors.New("homily boundary not found")
	ErrFallbackProtocolViolation    = errors.New("fallback inferrer protocol violation")
	ErrSuspiciousDuration           = errors.New("suspicious homily duration")
	ErrInvalidGroupKey              = errors.New("invalid group key")
	ErrClassifierProtocolViolation  = errors.New("deviation classifier protocol violation")
	ErrTranscriptUnusable           = errors.New("transcript unusable")
)
