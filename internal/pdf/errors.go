package pdf

import "errors"

// Sentinel errors for the request-level failure taxonomy. Everything else
// surfaces as a wrapped description without internal detail.
var (
	// ErrEmptyInput rejects a missing or zero-length buffer before parsing.
	ErrEmptyInput = errors.New("input is empty")

	// ErrTooLarge rejects an upload over the configured size bound before
	// any decoding begins.
	ErrTooLarge = errors.New("upload too large")

	// ErrNotFound covers unknown tokens and unknown artifact names alike;
	// expiry is deliberately indistinguishable from never-existed.
	ErrNotFound = errors.New("not found")

	// ErrStampFailed marks a partial embed: the attachment is present in the
	// returned document but the image overlay was not applied.
	ErrStampFailed = errors.New("attachment embedded but image stamp failed")
)
