package bst

import (
	"fmt"
	"io"

	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// Render writes a one-line-per-node indented dump of the tree rooted at
// root to w: color, offset, key, and value, children nested beneath their
// parent. It is diagnostic only; its output format is not an API contract.
func Render(w io.Writer, c *cb.CB, root offset.T) error {
	return render(w, c, root, 0)
}

// Print writes the tree's (key, value) pairs to w in ascending key order,
// one "key -> value" line each.
func Print(w io.Writer, c *cb.CB, root offset.T) error {
	return Traverse(c, root, func(key, value uint64) error {
		_, err := fmt.Fprintf(w, "%d -> %d\n", key, value)
		return err
	})
}

func render(w io.Writer, c *cb.CB, o offset.T, depth int) error {
	if o == Sentinel {
		return nil
	}
	n, err := readNode(c, o)
	if err != nil {
		return err
	}
	col := "B"
	if n.color == red {
		col = "R"
	}
	if _, err := fmt.Fprintf(w, "%*s%s@%d k=%d v=%d\n", depth*2, "", col, o, n.key, n.value); err != nil {
		return err
	}
	if err := render(w, c, n.left, depth+1); err != nil {
		return err
	}
	return render(w, c, n.right, depth+1)
}
