package btree

import (
	"github.com/cockroachdb/errors"
)

// deleteKey removes key from n and rebalances. Removing the last entry of a
// node removes the node itself from its parent, recursively.
func (t *Tree[K, V]) deleteKey(n *node[K, V], key K) (entry[K, V], bool) {
	pos, found := n.search(key)
	if !found {
		return entry[K, V]{}, false
	}
	removed := n.entries[pos]

	if pos == 0 && n.size() == 1 {
		if n.id == t.root {
			// Remove accounts for the key; only the nodes go here.
			t.pool.reset()
			t.root, t.head = 0, 0
			t.logger.Trace("removed last key")
			return removed, true
		}
		t.unlink(n)
		parent := n.parent
		t.pool.release(n.id)
		t.logger.Trace("dropped empty node", "node", n.id, "type", n.nodeType)
		if _, ok := t.deleteKey(t.pool.get(parent), key); !ok {
			panic(errors.AssertionFailedf("btree: key %v not found in parent %d", key, parent))
		}
		return removed, true
	}

	n.removeAt(pos)
	if pos == 0 {
		t.propagateMinKey(n, key, n.minKey())
	}
	t.tryMerge(n)
	return removed, true
}

// unlink takes n out of its sibling chain
func (t *Tree[K, V]) unlink(n *node[K, V]) {
	if n.prev != 0 {
		t.pool.get(n.prev).next = n.next
	}
	if n.next != 0 {
		t.pool.get(n.next).prev = n.prev
	}
	if t.head == n.id {
		t.head = n.next
	}
}

// tryMerge folds an under-full node into a sibling. The previous sibling is
// preferred: absorbing into it keeps the head and the parent keys in place.
// A node without siblings is the root, whose height collapses while it is an
// index node with a single child.
func (t *Tree[K, V]) tryMerge(n *node[K, V]) {
	if n.size() >= t.order/2 {
		return
	}

	if n.prev != 0 {
		if prev := t.pool.get(n.prev); prev.size()+n.size() <= t.order {
			t.merge(prev, n)
			return
		}
	}
	if n.next != 0 {
		if next := t.pool.get(n.next); next.size()+n.size() <= t.order {
			t.merge(n, next)
			return
		}
	}
	if n.prev != 0 || n.next != 0 {
		return
	}

	if n.id != t.root {
		panic(errors.AssertionFailedf("btree: node %d has no siblings but is not the root", n.id))
	}
	t.collapseRoot()
}

// merge appends right to left and removes right from the tree
func (t *Tree[K, V]) merge(left, right *node[K, V]) {
	left.entries = append(left.entries, right.entries...)
	if !left.isLeaf() {
		for _, e := range right.entries {
			t.pool.get(e.child).parent = left.id
		}
	}

	left.next = right.next
	if right.next != 0 {
		t.pool.get(right.next).prev = left.id
	}

	t.incr("merge", &t.merges)
	t.logger.Trace("merged nodes", "type", left.nodeType, "left", left.id, "right", right.id)

	minKey := right.minKey()
	if _, ok := t.deleteKey(t.pool.get(right.parent), minKey); !ok {
		panic(errors.AssertionFailedf("btree: key %v of node %d not found in parent %d", minKey, right.id, right.parent))
	}
	t.pool.release(right.id)
}

// collapseRoot replaces the root with its only child for as long as the
// root is an index node holding a single entry.
func (t *Tree[K, V]) collapseRoot() {
	root := t.pool.get(t.root)
	for !root.isLeaf() && root.size() == 1 {
		child := t.pool.get(root.entries[0].child)
		child.parent = 0
		t.pool.release(root.id)
		t.root = child.id
		t.incr("collapse", &t.collapses)
		t.logger.Trace("collapsed root", "old", root.id, "new", child.id)
		root = child
	}
}
