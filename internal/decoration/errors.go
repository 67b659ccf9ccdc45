package decoration

import (
	"errors"
	"fmt"
)

// ErrInvalidRange indicates a decoration with to < from or a negative position.
var ErrInvalidRange = errors.New("invalid decoration range")

// InvariantError reports a broken internal invariant of a decoration set.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("decoration: %s: %s", e.Op, e.Detail)
}
