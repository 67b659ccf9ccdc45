package change

import "errors"

// Errors returned by change set construction and application.
var (
	// ErrRangeInvalid indicates a change with To < From or a negative From.
	ErrRangeInvalid = errors.New("invalid change range")

	// ErrOutOfRange indicates a change extends past the document length.
	ErrOutOfRange = errors.New("change out of range")

	// ErrChangesOverlap indicates changes overlap or are not in ascending order.
	ErrChangesOverlap = errors.New("changes overlap or are not in ascending order")

	// ErrLengthMismatch indicates a set was applied to a document of the wrong length.
	ErrLengthMismatch = errors.New("document length does not match change set")
)
