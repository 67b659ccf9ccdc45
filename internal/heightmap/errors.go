package heightmap

import "fmt"

// InvariantError reports a height map used with a document it does not
// describe.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("heightmap: %s: %s", e.Op, e.Msg)
}
