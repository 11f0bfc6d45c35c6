package domain

import "errors"

// Error taxonomy. Callers classify failures with errors.Is against these
// sentinels; lower layers wrap them with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidInput means a required field was empty or missing. It is
	// checked before any external call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction means the upstream scrape failed. Any previously
	// extracted page stays untouched.
	ErrExtraction = errors.New("extraction failed")

	// ErrGeneration means the AI call for one platform failed. The failed
	// platform is skipped; sibling platforms continue.
	ErrGeneration = errors.New("generation failed")

	// ErrChat means the AI call for a chat turn failed. Only that turn is
	// aborted; the transcript is left unmodified by it.
	ErrChat = errors.New("chat failed")

	// ErrPersistence means a store read or write failed. It is logged and
	// never allowed to block the interactive flow.
	ErrPersistence = errors.New("persistence failed")
)
