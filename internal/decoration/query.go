package decoration

import "fmt"

// Between calls fn for every decoration touching [from, to], in order.
// A decoration touches the range when it overlaps it or ends or starts at
// one of its edges. Iteration stops when fn returns false.
func (s *Set) Between(from, to int, fn func(d Decoration) bool) {
	c := s.cursor(from, to)
	for b := c.batch(); b != nil; b = c.batch() {
		for _, d := range b {
			if !fn(d) {
				return
			}
		}
	}
}

// All returns every decoration in order.
func (s *Set) All() []Decoration {
	return collectSorted(s.root, 0)
}

// Check verifies the structural invariants of the tree: sizes add up,
// every decoration lies within the node holding it, children fit their
// parent, and full iteration is sorted.
func (s *Set) Check() error {
	if _, err := checkNode(s.root, "root"); err != nil {
		return err
	}
	all := s.All()
	for i := 1; i < len(all); i++ {
		if compare(all[i-1], all[i]) > 0 {
			return &InvariantError{Op: "check", Detail: fmt.Sprintf("%v sorts after %v", all[i-1], all[i])}
		}
	}
	return nil
}

func checkNode(n *node, path string) (int, error) {
	count := len(n.local)
	for i, d := range n.local {
		if d.from < 0 || d.to < d.from || d.to > n.length {
			return 0, &InvariantError{Op: "check", Detail: fmt.Sprintf("%s: %v outside length %d", path, d, n.length)}
		}
		if i > 0 && compare(n.local[i-1], d) > 0 {
			return 0, &InvariantError{Op: "check", Detail: fmt.Sprintf("%s: local decorations out of order at %d", path, i)}
		}
	}
	covered := 0
	for i, c := range n.children {
		k, err := checkNode(c, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return 0, err
		}
		count += k
		covered += c.length
	}
	if covered > n.length {
		return 0, &InvariantError{Op: "check", Detail: fmt.Sprintf("%s: children cover %d of length %d", path, covered, n.length)}
	}
	if count != n.size {
		return 0, &InvariantError{Op: "check", Detail: fmt.Sprintf("%s: size %d, counted %d", path, n.size, count)}
	}
	return count, nil
}

// depth returns the height of the tree.
func (s *Set) depth() int {
	var walk func(n *node) int
	walk = func(n *node) int {
		d := 0
		for _, c := range n.children {
			d = max(d, walk(c))
		}
		return d + 1
	}
	return walk(s.root)
}
