package bst

import (
	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// Lookup performs a read-only descent for key, returning its value and
// true if present.
func Lookup(c *cb.CB, root offset.T, key uint64) (uint64, bool, error) {
	o := root
	for o != Sentinel {
		n, err := readNode(c, o)
		if err != nil {
			return 0, false, err
		}
		switch {
		case key < n.key:
			o = n.left
		case key > n.key:
			o = n.right
		default:
			return n.value, true, nil
		}
	}
	return 0, false, nil
}

// ContainsKey reports whether key is present in the tree rooted at root.
func ContainsKey(c *cb.CB, root offset.T, key uint64) (bool, error) {
	_, found, err := Lookup(c, root, key)
	return found, err
}

// VisitFunc is called once per (key, value) pair during an in-order
// traversal. A non-nil return aborts the traversal; that value is
// propagated back out of Traverse.
type VisitFunc func(key, value uint64) error

// Traverse visits every (key, value) pair in the tree rooted at root in
// ascending key order, stopping (and returning the callback's error) the
// first time fn returns non-nil.
func Traverse(c *cb.CB, root offset.T, fn VisitFunc) error {
	if root == Sentinel {
		return nil
	}
	n, err := readNode(c, root)
	if err != nil {
		return err
	}
	if err := Traverse(c, n.left, fn); err != nil {
		return err
	}
	if err := fn(n.key, n.value); err != nil {
		return err
	}
	return Traverse(c, n.right, fn)
}

// Size returns the number of nodes in the tree rooted at root.
func Size(c *cb.CB, root offset.T) (int, error) {
	n := 0
	err := Traverse(c, root, func(uint64, uint64) error {
		n++
		return nil
	})
	return n, err
}

// Cmp compares two trees lexicographically over their sorted key
// sequences: the first differing key decides, and a shorter-but-otherwise
// equal sequence sorts first.
func Cmp(c *cb.CB, rootA, rootB offset.T) (int, error) {
	var keysA, keysB []uint64
	if err := Traverse(c, rootA, func(k, _ uint64) error {
		keysA = append(keysA, k)
		return nil
	}); err != nil {
		return 0, err
	}
	if err := Traverse(c, rootB, func(k, _ uint64) error {
		keysB = append(keysB, k)
		return nil
	}); err != nil {
		return 0, err
	}
	for i := 0; i < len(keysA) && i < len(keysB); i++ {
		if keysA[i] < keysB[i] {
			return -1, nil
		}
		if keysA[i] > keysB[i] {
			return 1, nil
		}
	}
	switch {
	case len(keysA) < len(keysB):
		return -1, nil
	case len(keysA) > len(keysB):
		return 1, nil
	default:
		return 0, nil
	}
}
