package kvmap

import (
	"io"

	"github.com/dkopko/cb/bst"
	"github.com/dkopko/cb/offset"
)

// Consolidate folds the command chain into a single fresh BST: it walks
// the chain from last back to either the start of the log (noPrev) or
// the most recent BST_ROOT — whichever comes first — collecting SET/DELETE
// records, then replays them in chronological (oldest-to-newest) order
// onto the BST_ROOT's tree (or an empty tree, if none was found). Replay
// order alone is what makes a later SET/DELETE shadow an earlier one;
// nothing else needs to track shadowing explicitly.
//
// The fresh tree is published as a new BST_ROOT record whose cutoff is the
// cursor observed before the build began, and last_command_offset advances
// to that record. The old command records and superseded tree nodes are
// left in place; callers that want to reclaim that space call Reclaim
// afterward once they're sure no other reader still needs them.
func (m *Map) Consolidate() error {
	var ops []record // newest-first; replayed in reverse

	baseRoot := bst.Sentinel
	cur := m.last
	for cur != noPrev {
		r, err := readRecord(m.c, cur)
		if err != nil {
			return err
		}
		if r.kind == kindBSTRoot {
			baseRoot = offset.T(r.field1)
			break
		}
		ops = append(ops, r)
		cur = r.prevOffset
	}

	cutoff := m.c.Cursor()
	root := baseRoot
	for i := len(ops) - 1; i >= 0; i-- {
		r := ops[i]
		var err error
		switch r.kind {
		case kindSet:
			root, err = bst.Insert(m.c, root, cutoff, r.field1, r.field2)
		case kindDelete:
			root, err = bst.Delete(m.c, root, cutoff, r.field1)
			if err == bst.ErrNotFound {
				err = nil
			}
		}
		if err != nil {
			return err
		}
	}

	o, err := appendRecord(m.c, record{
		kind:       kindBSTRoot,
		prevOffset: m.last,
		field1:     uint64(root),
		field2:     uint64(cutoff),
	})
	if err != nil {
		return err
	}
	m.last = o
	return nil
}

// Reclaim advances the buffer's data_start to the cutoff recorded by the
// most recent BST_ROOT, freeing the command records and superseded tree
// nodes before it. It is a no-op if the map has never been consolidated.
func (m *Map) Reclaim() error {
	cur := m.last
	for cur != noPrev {
		r, err := readRecord(m.c, cur)
		if err != nil {
			return err
		}
		if r.kind == kindBSTRoot {
			return m.c.AdvanceDataStart(offset.T(r.field2))
		}
		cur = r.prevOffset
	}
	return nil
}

// Traverse visits every live (key, value) pair in ascending key order. The
// concrete strategy is to consolidate first (materializing the current
// logical snapshot into one tree) and then run an ordinary in-order BST
// traversal over the result.
func (m *Map) Traverse(fn bst.VisitFunc) error {
	if err := m.Consolidate(); err != nil {
		return err
	}
	r, err := readRecord(m.c, m.last)
	if err != nil {
		return err
	}
	return bst.Traverse(m.c, offset.T(r.field1), fn)
}

// Print writes a human-readable dump of the map's current logical content
// to w, one "key -> value" pair per line in ascending key order.
func (m *Map) Print(w io.Writer) error {
	if err := m.Consolidate(); err != nil {
		return err
	}
	r, err := readRecord(m.c, m.last)
	if err != nil {
		return err
	}
	return bst.Print(w, m.c, offset.T(r.field1))
}
