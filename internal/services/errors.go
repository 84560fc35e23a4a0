package services

import "errors"

// Typed errors for session operations
var (
	// ErrDuplicateRequest is returned when the same authorization code is already being exchanged.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrSuperseded is returned to a caller whose in-flight request was replaced by a newer one.
	ErrSuperseded = errors.New("request superseded")

	// ErrMissingToken indicates no access token was available when the call was made.
	ErrMissingToken = errors.New("missing access token")

	// ErrNotFound indicates the photo targeted by a like toggle is not in the feed.
	ErrNotFound = errors.New("photo not found")
)
