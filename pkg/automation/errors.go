package automation

import "errors"

var (
	// ErrCommentTooLong is returned for comments over MaxCommentLength
	// runes.
	ErrCommentTooLong = errors.New("automation: comment exceeds maximum length")

	// ErrURLNotAllowed is returned when a target URL does not match the
	// account platform's allowed content URL patterns.
	ErrURLNotAllowed = errors.New("automation: target url not allowed for platform")

	// ErrBatchTooLarge is returned when a batch exceeds the pacing
	// policy's maximum size. The whole batch is rejected; no item runs.
	ErrBatchTooLarge = errors.New("automation: batch exceeds maximum size")
)
