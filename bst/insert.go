package bst

import (
	"github.com/dkopko/cb"
	"github.com/dkopko/cb/offset"
)

// Insert sets key to value in the tree rooted at root, returning the new
// root. A key equal to an existing one overwrites its value; no duplicate
// nodes are created. Every node touched on the path is cloned if it lies
// below cutoff, mutated in place otherwise.
func Insert(c *cb.CB, root, cutoff offset.T, key, value uint64) (offset.T, error) {
	newRoot, err := ins(c, root, cutoff, key, value)
	if err != nil {
		return 0, err
	}
	return blackenRoot(c, cutoff, newRoot)
}

func ins(c *cb.CB, nodeOff, cutoff offset.T, key, value uint64) (offset.T, error) {
	if nodeOff == Sentinel {
		return allocNode(c, node{color: red, left: Sentinel, right: Sentinel, key: key, value: value})
	}
	n, err := readNode(c, nodeOff)
	if err != nil {
		return 0, err
	}
	switch {
	case key < n.key:
		newLeft, err := ins(c, n.left, cutoff, key, value)
		if err != nil {
			return 0, err
		}
		return balance(c, cutoff, nodeOff, n.color, newLeft, n.key, n.value, n.right)
	case key > n.key:
		newRight, err := ins(c, n.right, cutoff, key, value)
		if err != nil {
			return 0, err
		}
		return balance(c, cutoff, nodeOff, n.color, n.left, n.key, n.value, newRight)
	default:
		o, nd, err := cloneOrMutate(c, nodeOff, cutoff)
		if err != nil {
			return 0, err
		}
		nd.value = value
		if err := writeNode(c, o, nd); err != nil {
			return 0, err
		}
		return o, nil
	}
}

// blackenRoot forces the root black, as required after every insert (a
// red-red violation can only ever surface at the root after the recursive
// rebalance below).
func blackenRoot(c *cb.CB, cutoff, root offset.T) (offset.T, error) {
	n, err := readNode(c, root)
	if err != nil {
		return 0, err
	}
	if n.color == black {
		return root, nil
	}
	o, nd, err := cloneOrMutate(c, root, cutoff)
	if err != nil {
		return 0, err
	}
	nd.color = black
	if err := writeNode(c, o, nd); err != nil {
		return 0, err
	}
	return o, nil
}

// balance reconstructs the node previously at nodeOff with color, new
// children left/right, and key/value, absorbing any red-red violation
// introduced by the just-rebuilt child via the four classical
// rotation/recolor cases (Okasaki's balance). left and right here are
// already-finalized subtree roots; only a local violation between nodeOff
// and one of its children can exist, since the recursive call below it
// already balanced anything deeper.
func balance(c *cb.CB, cutoff, nodeOff offset.T, nodeColor color, left offset.T, key, value uint64, right offset.T) (offset.T, error) {
	if nodeColor == black {
		if left != Sentinel {
			ln, err := readNode(c, left)
			if err != nil {
				return 0, err
			}
			if ln.color == red {
				if ln.left != Sentinel {
					lln, err := readNode(c, ln.left)
					if err != nil {
						return 0, err
					}
					if lln.color == red {
						return rotateCase(c, cutoff,
							ln.left, lln.left, lln.key, lln.value, lln.right,
							left, ln.key, ln.value, ln.right,
							nodeOff, key, value, right)
					}
				}
				if ln.right != Sentinel {
					lrn, err := readNode(c, ln.right)
					if err != nil {
						return 0, err
					}
					if lrn.color == red {
						return rotateCase(c, cutoff,
							left, ln.left, ln.key, ln.value, lrn.left,
							ln.right, lrn.key, lrn.value, lrn.right,
							nodeOff, key, value, right)
					}
				}
			}
		}
		if right != Sentinel {
			rn, err := readNode(c, right)
			if err != nil {
				return 0, err
			}
			if rn.color == red {
				if rn.left != Sentinel {
					rln, err := readNode(c, rn.left)
					if err != nil {
						return 0, err
					}
					if rln.color == red {
						return rotateCase(c, cutoff,
							nodeOff, left, key, value, rln.left,
							rn.left, rln.key, rln.value, rln.right,
							right, rn.key, rn.value, rn.right)
					}
				}
				if rn.right != Sentinel {
					rrn, err := readNode(c, rn.right)
					if err != nil {
						return 0, err
					}
					if rrn.color == red {
						return rotateCase(c, cutoff,
							nodeOff, left, key, value, rn.left,
							right, rn.key, rn.value, rrn.left,
							rn.right, rrn.key, rrn.value, rrn.right)
					}
				}
			}
		}
	}
	o, n, err := cloneOrMutate(c, nodeOff, cutoff)
	if err != nil {
		return 0, err
	}
	n.color = nodeColor
	n.left = left
	n.key = key
	n.value = value
	n.right = right
	if err := writeNode(c, o, n); err != nil {
		return 0, err
	}
	return o, nil
}

// rotateCase builds T Red (T Black a x b) y (T Black c z d), reusing the
// offsets of the three structurally-rotated nodes (identityLeft, identityY,
// identityRight) as their clone-or-mutate identities, per the usual
// in-place rotation correspondence.
func rotateCase(c *cb.CB, cutoff offset.T,
	identityLeft, a offset.T, xKey, xValue uint64, b offset.T,
	identityY offset.T, yKey, yValue uint64, c2 offset.T,
	identityRight offset.T, zKey, zValue uint64, d offset.T) (offset.T, error) {

	leftOff, leftNode, err := cloneOrMutate(c, identityLeft, cutoff)
	if err != nil {
		return 0, err
	}
	leftNode.color = black
	leftNode.left = a
	leftNode.key = xKey
	leftNode.value = xValue
	leftNode.right = b
	if err := writeNode(c, leftOff, leftNode); err != nil {
		return 0, err
	}

	rightOff, rightNode, err := cloneOrMutate(c, identityRight, cutoff)
	if err != nil {
		return 0, err
	}
	rightNode.color = black
	rightNode.left = c2
	rightNode.key = zKey
	rightNode.value = zValue
	rightNode.right = d
	if err := writeNode(c, rightOff, rightNode); err != nil {
		return 0, err
	}

	topOff, topNode, err := cloneOrMutate(c, identityY, cutoff)
	if err != nil {
		return 0, err
	}
	topNode.color = red
	topNode.left = leftOff
	topNode.key = yKey
	topNode.value = yValue
	topNode.right = rightOff
	if err := writeNode(c, topOff, topNode); err != nil {
		return 0, err
	}
	return topOff, nil
}
