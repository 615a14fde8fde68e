package bst

import (
	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// lcolor is the logical color used while deletion is in flight: it widens
// the persisted red/black bit with the transient double-black and
// negative-black markers a deletion fixup needs, per the standard
// purely-functional red-black deletion algorithm. Only red/black ever
// reach the arena; by construction a well-formed deletion never leaves a
// double- or negative-black node in the final, blackened result.
type lcolor int8

const (
	lRed lcolor = iota
	lBlack
	lDoubleBlack
	lNegBlack
)

func toLColor(c color) lcolor {
	if c == red {
		return lRed
	}
	return lBlack
}

// vtree is an in-flight (possibly not yet materialized) subtree used only
// during Delete. kind distinguishes an ordinary empty leaf (vEmpty), a
// "double black" empty produced mid-fixup (vEmptyBB), or a real node
// (vNode). A vNode is either a lazy reference to an existing, unmodified
// arena subtree (dirty == false, in which case left/right are read from
// the arena on demand) or a fully in-memory reconstruction (dirty == true).
type vtreeKind int8

const (
	vEmpty vtreeKind = iota
	vEmptyBB
	vNode
)

type vtree struct {
	kind  vtreeKind
	color lcolor

	// valid when kind == vNode && !dirty: the unmodified arena offset to
	// read children from lazily.
	off offset.T

	// valid when kind == vNode && dirty: the reconstructed children.
	left, right *vtree

	key, value uint64

	// hasOrig/origOff identify the arena node this logical position was
	// substantiated from, if any, so materialize can honor the cutoff's
	// clone-or-mutate discipline instead of always allocating fresh.
	hasOrig bool
	origOff offset.T
}

func vEmptyT() vtree   { return vtree{kind: vEmpty} }
func vEmptyBBT() vtree { return vtree{kind: vEmptyBB} }

// deleter holds the shared CB/cutoff context for one Delete call.
type deleter struct {
	c      *cb.CB
	cutoff offset.T
}

func (d *deleter) load(o offset.T) (vtree, error) {
	if o == Sentinel {
		return vEmptyT(), nil
	}
	n, err := readNode(d.c, o)
	if err != nil {
		return vtree{}, err
	}
	return vtree{
		kind:    vNode,
		color:   toLColor(n.color),
		off:     o,
		key:     n.key,
		value:   n.value,
		hasOrig: true,
		origOff: o,
	}, nil
}

func (d *deleter) left(t vtree) (vtree, error) {
	if t.dirtyChildren() {
		return *t.left, nil
	}
	n, err := readNode(d.c, t.off)
	if err != nil {
		return vtree{}, err
	}
	return d.load(n.left)
}

func (d *deleter) right(t vtree) (vtree, error) {
	if t.dirtyChildren() {
		return *t.right, nil
	}
	n, err := readNode(d.c, t.off)
	if err != nil {
		return vtree{}, err
	}
	return d.load(n.right)
}

func (t vtree) dirtyChildren() bool {
	return t.left != nil || t.right != nil
}

func mkNode(color lcolor, l vtree, key, value uint64, r vtree, hasOrig bool, origOff offset.T) vtree {
	lc := l
	rc := r
	return vtree{
		kind: vNode, color: color, left: &lc, right: &rc,
		key: key, value: value, hasOrig: hasOrig, origOff: origOff,
	}
}

func isBB(t vtree) bool {
	return t.kind == vEmptyBB || (t.kind == vNode && t.color == lDoubleBlack)
}

func isColor(t vtree, c lcolor) bool {
	return t.kind == vNode && t.color == c
}

func blacker(c lcolor) lcolor {
	switch c {
	case lRed:
		return lBlack
	case lBlack:
		return lDoubleBlack
	case lNegBlack:
		return lRed
	default:
		panic("bst: blacker of double-black")
	}
}

func redder(c lcolor) lcolor {
	switch c {
	case lBlack:
		return lRed
	case lDoubleBlack:
		return lBlack
	case lRed:
		return lNegBlack
	default:
		panic("bst: redder of negative-black")
	}
}

func blackerTree(t vtree) vtree {
	if t.kind == vEmpty {
		return vEmptyBBT()
	}
	t2 := t
	t2.color = blacker(t.color)
	return t2
}

func redderTree(t vtree) vtree {
	if t.kind == vEmptyBB {
		return vEmptyT()
	}
	t2 := t
	t2.color = redder(t.color)
	return t2
}

func redden(t vtree) vtree {
	t2 := t
	t2.color = lRed
	return t2
}

// balance absorbs a red-red or double-black violation freshly introduced
// at this level by reconstructing (at most) the three affected nodes, the
// same four rotation shapes as insert plus the two double-black-absorbing
// rotations unique to deletion (see Kazu Yamamoto / Matt Might's
// purely-functional red-black deletion).
func (d *deleter) balance(color lcolor, l vtree, key, value uint64, r vtree, hasOrig bool, origOff offset.T) (vtree, error) {
	if color == lBlack || color == lDoubleBlack {
		if isColor(l, lRed) {
			ll, err := d.left(l)
			if err != nil {
				return vtree{}, err
			}
			if isColor(ll, lRed) {
				lr, err := d.right(l)
				if err != nil {
					return vtree{}, err
				}
				a, err := d.left(ll)
				if err != nil {
					return vtree{}, err
				}
				b, err := d.right(ll)
				if err != nil {
					return vtree{}, err
				}
				left := mkNode(lBlack, a, ll.key, ll.value, b, ll.hasOrig, ll.origOff)
				right := mkNode(lBlack, lr, key, value, r, hasOrig, origOff)
				return mkNode(lBlack, left, l.key, l.value, right, l.hasOrig, l.origOff), nil
			}
			lr, err := d.right(l)
			if err != nil {
				return vtree{}, err
			}
			if isColor(lr, lRed) {
				a, err := d.left(l)
				if err != nil {
					return vtree{}, err
				}
				b, err := d.left(lr)
				if err != nil {
					return vtree{}, err
				}
				c, err := d.right(lr)
				if err != nil {
					return vtree{}, err
				}
				left := mkNode(lBlack, a, l.key, l.value, b, l.hasOrig, l.origOff)
				right := mkNode(lBlack, c, key, value, r, hasOrig, origOff)
				return mkNode(lBlack, left, lr.key, lr.value, right, lr.hasOrig, lr.origOff), nil
			}
		}
		if isColor(r, lRed) {
			rl, err := d.left(r)
			if err != nil {
				return vtree{}, err
			}
			if isColor(rl, lRed) {
				rr, err := d.right(r)
				if err != nil {
					return vtree{}, err
				}
				b, err := d.left(rl)
				if err != nil {
					return vtree{}, err
				}
				c, err := d.right(rl)
				if err != nil {
					return vtree{}, err
				}
				left := mkNode(lBlack, l, key, value, b, hasOrig, origOff)
				right := mkNode(lBlack, c, r.key, r.value, rr, r.hasOrig, r.origOff)
				return mkNode(lBlack, left, rl.key, rl.value, right, rl.hasOrig, rl.origOff), nil
			}
			rr, err := d.right(r)
			if err != nil {
				return vtree{}, err
			}
			if isColor(rr, lRed) {
				b, err := d.left(r)
				if err != nil {
					return vtree{}, err
				}
				c, err := d.left(rr)
				if err != nil {
					return vtree{}, err
				}
				dd, err := d.right(rr)
				if err != nil {
					return vtree{}, err
				}
				left := mkNode(lBlack, l, key, value, b, hasOrig, origOff)
				right := mkNode(lBlack, c, rr.key, rr.value, dd, rr.hasOrig, rr.origOff)
				return mkNode(lBlack, left, r.key, r.value, right, r.hasOrig, r.origOff), nil
			}
		}
	}
	if color == lDoubleBlack {
		if isColor(r, lNegBlack) {
			m, err := d.left(r)
			if err != nil {
				return vtree{}, err
			}
			rr, err := d.right(r)
			if err != nil {
				return vtree{}, err
			}
			if isColor(m, lBlack) && isColor(rr, lBlack) {
				b, err := d.left(m)
				if err != nil {
					return vtree{}, err
				}
				c, err := d.right(m)
				if err != nil {
					return vtree{}, err
				}
				leftUnit := mkNode(lBlack, l, key, value, b, hasOrig, origOff)
				rightUnit, err := d.balance(lBlack, c, r.key, r.value, redden(rr), r.hasOrig, r.origOff)
				if err != nil {
					return vtree{}, err
				}
				return mkNode(lBlack, leftUnit, m.key, m.value, rightUnit, m.hasOrig, m.origOff), nil
			}
		}
		if isColor(l, lNegBlack) {
			ll, err := d.left(l)
			if err != nil {
				return vtree{}, err
			}
			m, err := d.right(l)
			if err != nil {
				return vtree{}, err
			}
			if isColor(ll, lBlack) && isColor(m, lBlack) {
				b, err := d.left(m)
				if err != nil {
					return vtree{}, err
				}
				c, err := d.right(m)
				if err != nil {
					return vtree{}, err
				}
				leftUnit, err := d.balance(lBlack, redden(ll), l.key, l.value, b, l.hasOrig, l.origOff)
				if err != nil {
					return vtree{}, err
				}
				rightUnit := mkNode(lBlack, c, key, value, r, hasOrig, origOff)
				return mkNode(lBlack, leftUnit, m.key, m.value, rightUnit, m.hasOrig, m.origOff), nil
			}
		}
	}
	return mkNode(color, l, key, value, r, hasOrig, origOff), nil
}

// bubble propagates a double-black child upward one level, absorbing it
// via balance once this level's color has been correspondingly darkened.
func (d *deleter) bubble(color lcolor, l vtree, key, value uint64, r vtree, hasOrig bool, origOff offset.T) (vtree, error) {
	if isBB(l) || isBB(r) {
		return d.balance(blacker(color), redderTree(l), key, value, redderTree(r), hasOrig, origOff)
	}
	return d.balance(color, l, key, value, r, hasOrig, origOff)
}

// remove deletes t's own key/value, assuming t is a vNode.
func (d *deleter) remove(t vtree) (vtree, error) {
	l, err := d.left(t)
	if err != nil {
		return vtree{}, err
	}
	r, err := d.right(t)
	if err != nil {
		return vtree{}, err
	}
	switch {
	case t.color == lRed && l.kind == vEmpty && r.kind == vEmpty:
		return vEmptyT(), nil
	case t.color == lBlack && l.kind == vEmpty && r.kind == vEmpty:
		return vEmptyBBT(), nil
	case t.color == lBlack && l.kind == vEmpty && isColor(r, lRed):
		rl, err := d.left(r)
		if err != nil {
			return vtree{}, err
		}
		rr, err := d.right(r)
		if err != nil {
			return vtree{}, err
		}
		return mkNode(lBlack, rl, r.key, r.value, rr, r.hasOrig, r.origOff), nil
	case t.color == lBlack && isColor(l, lRed) && r.kind == vEmpty:
		ll, err := d.left(l)
		if err != nil {
			return vtree{}, err
		}
		lr, err := d.right(l)
		if err != nil {
			return vtree{}, err
		}
		return mkNode(lBlack, ll, l.key, l.value, lr, l.hasOrig, l.origOff), nil
	default:
		mk, mv, l2, err := d.maxAndRemoveMax(l)
		if err != nil {
			return vtree{}, err
		}
		return d.bubble(t.color, l2, mk, mv, r, t.hasOrig, t.origOff)
	}
}

// maxAndRemoveMax returns the maximum (key, value) in t along with t with
// that entry removed.
func (d *deleter) maxAndRemoveMax(t vtree) (uint64, uint64, vtree, error) {
	r, err := d.right(t)
	if err != nil {
		return 0, 0, vtree{}, err
	}
	if r.kind == vEmpty {
		nt, err := d.remove(t)
		return t.key, t.value, nt, err
	}
	mk, mv, r2, err := d.maxAndRemoveMax(r)
	if err != nil {
		return 0, 0, vtree{}, err
	}
	l, err := d.left(t)
	if err != nil {
		return 0, 0, vtree{}, err
	}
	nt, err := d.bubble(t.color, l, t.key, t.value, r2, t.hasOrig, t.origOff)
	return mk, mv, nt, err
}

// del removes key from t, reporting whether it was present. When absent,
// t is returned unchanged and the caller must not materialize it (so that
// a missing key never performs a single write).
func (d *deleter) del(key uint64, t vtree) (vtree, bool, error) {
	if t.kind != vNode {
		return t, false, nil
	}
	switch {
	case key < t.key:
		l, err := d.left(t)
		if err != nil {
			return vtree{}, false, err
		}
		nl, found, err := d.del(key, l)
		if err != nil || !found {
			return t, found, err
		}
		r, err := d.right(t)
		if err != nil {
			return vtree{}, false, err
		}
		nt, err := d.bubble(t.color, nl, t.key, t.value, r, t.hasOrig, t.origOff)
		return nt, true, err
	case key > t.key:
		r, err := d.right(t)
		if err != nil {
			return vtree{}, false, err
		}
		nr, found, err := d.del(key, r)
		if err != nil || !found {
			return t, found, err
		}
		l, err := d.left(t)
		if err != nil {
			return vtree{}, false, err
		}
		nt, err := d.bubble(t.color, l, t.key, t.value, nr, t.hasOrig, t.origOff)
		return nt, true, err
	default:
		nt, err := d.remove(t)
		return nt, true, err
	}
}

// blacken forces the logical root color to black, discarding any leftover
// double-blackness at the very top (an empty tree after deleting its only
// element has no root to color).
func blacken(t vtree) vtree {
	if t.kind != vNode {
		return vEmptyT()
	}
	t2 := t
	t2.color = lBlack
	return t2
}

// materialize writes a (possibly partially lazy) vtree into the arena,
// returning the resulting root offset. Untouched subtrees are not
// rewritten at all — only nodes actually reconstructed or recolored during
// the delete incur a write, which is what makes this a path-copying
// operation rather than a full-tree rebuild.
func (d *deleter) materialize(t vtree) (offset.T, error) {
	if t.kind != vNode {
		return Sentinel, nil
	}
	var lOff, rOff offset.T
	if !t.dirtyChildren() {
		// A lazy node keeps its arena children; it needs a write only if
		// the fixup recolored it.
		n, err := readNode(d.c, t.off)
		if err != nil {
			return 0, err
		}
		if toLColor(n.color) == t.color {
			return t.off, nil
		}
		lOff, rOff = n.left, n.right
	} else {
		var err error
		if lOff, err = d.materialize(*t.left); err != nil {
			return 0, err
		}
		if rOff, err = d.materialize(*t.right); err != nil {
			return 0, err
		}
	}
	nc := black
	if t.color == lRed {
		nc = red
	}
	n := node{color: nc, left: lOff, right: rOff, key: t.key, value: t.value}
	if t.hasOrig {
		o, existing, err := cloneOrMutate(d.c, t.origOff, d.cutoff)
		if err != nil {
			return 0, err
		}
		_ = existing
		if err := writeNode(d.c, o, n); err != nil {
			return 0, err
		}
		return o, nil
	}
	return allocNode(d.c, n)
}

// Delete removes key from the tree rooted at root, returning the new root.
// It reports ErrNotFound, without mutating anything, if key is absent.
func Delete(c *cb.CB, root, cutoff offset.T, key uint64) (offset.T, error) {
	d := &deleter{c: c, cutoff: cutoff}
	t, err := d.load(root)
	if err != nil {
		return 0, err
	}
	nt, found, err := d.del(key, t)
	if err != nil {
		return 0, err
	}
	if !found {
		return root, ErrNotFound
	}
	return d.materialize(blacken(nt))
}
