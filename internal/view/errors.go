package view

import (
	"errors"
	"fmt"

	"github.com/dshills/scrivener/internal/content"
	"github.com/dshills/scrivener/internal/decoration"
	"github.com/dshills/scrivener/internal/docview"
	"github.com/dshills/scrivener/internal/heightmap"
)

// Errors returned by View operations.
var (
	// ErrLengthMismatch indicates a transaction whose changes do not
	// start from the current document.
	ErrLengthMismatch = errors.New("changes do not match document length")

	// ErrNilBackend indicates Paint was called without a backend.
	ErrNilBackend = errors.New("nil backend")
)

// AbortError reports a transaction rejected because an engine invariant
// failed while applying it. Err is the engine's *InvariantError.
type AbortError struct {
	Op  string
	Err error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("view: %s aborted: %v", e.Op, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// invariantError returns r as an error if it is an invariant failure
// raised by one of the engine packages.
func invariantError(r any) (error, bool) {
	switch e := r.(type) {
	case *content.InvariantError:
		return e, true
	case *decoration.InvariantError:
		return e, true
	case *docview.InvariantError:
		return e, true
	case *heightmap.InvariantError:
		return e, true
	}
	return nil, false
}
