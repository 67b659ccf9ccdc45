package content

import "fmt"

// InvariantError reports an internal consistency failure while building
// or merging content. It indicates a bug in a decoration source or caller.
type InvariantError struct {
	Op  string
	Pos int
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("content: %s at %d: %s", e.Op, e.Pos, e.Msg)
}
