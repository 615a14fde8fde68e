package bst

import (
	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
	"github.com/dkopko/cb/hashstate"
)

// Hash folds the tree rooted at root into a single 64-bit digest over its
// in-order (key, value) sequence, using the shared streaming hash state
// (see package hashstate). Two trees with the same sorted content hash
// identically regardless of their internal shape or node offsets.
func Hash(c *cb.CB, root offset.T) (uint64, error) {
	s := hashstate.New()
	err := Traverse(c, root, func(key, value uint64) error {
		s.WritePair(key, value)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.Sum64(), nil
}
