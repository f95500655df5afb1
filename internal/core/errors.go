package core

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared across services. Handlers classify errors with
// errors.Is and map them to short user-facing messages; the wrapped detail
// is for logs only.
var (
	// ErrInvalidChunkParams reports malformed chunking parameters. The call
	// fails outright, parameters are never silently corrected.
	ErrInvalidChunkParams = errors.New("chunk window must be greater than overlap, and overlap must not be negative")

	// ErrEmptyDocument reports an upload with no extractable text. Nothing
	// is written to the corpus.
	ErrEmptyDocument = errors.New("no text content found in the uploaded file")

	// ErrUnsupportedFormat reports a file type we cannot extract text from.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrStorage reports a persistence failure. Appends are transactional,
	// so the corpus is unchanged when this surfaces.
	ErrStorage = errors.New("storage failure")

	// ErrInventoryEmpty reports an inventory operation with no rows to work
	// on: an export of an empty table, or a CSV import whose rows were all
	// dropped for having blank product names.
	ErrInventoryEmpty = errors.New("no inventory data")

	// ErrGatewayTimeout reports a generation call that exceeded its deadline.
	ErrGatewayTimeout = errors.New("generation timed out")

	// ErrGatewayUnavailable reports any other generation transport or API
	// failure.
	ErrGatewayUnavailable = errors.New("generation service unavailable")
)

// CommandParseError reports an inventory command that started with a known
// verb but did not match the grammar. Parse failure is a first-class outcome:
// the caller shows Reason and the expected grammar instead of guessing.
type CommandParseError struct {
	Input  string
	Reason string
}

func (e *CommandParseError) Error() string {
	return fmt.Sprintf("cannot parse inventory command %q: %s", e.Input, e.Reason)
}
