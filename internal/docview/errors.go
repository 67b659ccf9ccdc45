package docview

import "fmt"

// InvariantError reports a broken tree invariant or an illegal merge.
// It is raised by panicking and indicates a defect in a decoration source
// or caller.
type InvariantError struct {
	Op  string
	Pos int
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("docview: %s at %d: %s", e.Op, e.Pos, e.Msg)
}

func invariant(op string, pos int, format string, args ...any) {
	panic(&InvariantError{Op: op, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}
