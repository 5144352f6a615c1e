package btree

import (
	"cmp"

	"github.com/cockroachdb/errors"
)

// insertNode stores e in n, splitting n first when it is full. A key that is
// already present is overwritten; that only ever happens in a leaf.
func (t *Tree[K, V]) insertNode(n *node[K, V], e entry[K, V]) (old V, replaced bool) {
	pos, found := n.search(e.key)
	if found {
		if !n.isLeaf() {
			panic(errors.AssertionFailedf("btree: key %v already indexed by node %d", e.key, n.id))
		}
		old = n.entries[pos].value
		n.entries[pos].value = e.value
		return old, true
	}

	target := n
	if n.full() {
		right := t.splitNode(n)
		if !cmp.Less(e.key, right.minKey()) {
			target = right
		}
		pos, _ = target.search(e.key)
	}
	t.insertEntry(target, pos, e)
	return old, false
}

// insertEntry places e at pos in a node with room for it. A new minimum is
// propagated to the ancestors before the old one is shifted away.
func (t *Tree[K, V]) insertEntry(n *node[K, V], pos int, e entry[K, V]) {
	if pos == 0 && n.size() > 0 && n.parent != 0 {
		t.propagateMinKey(n, n.minKey(), e.key)
	}
	n.insertAt(pos, e)
	if !n.isLeaf() {
		t.pool.get(e.child).parent = n.id
	}
}

// splitNode moves the upper half of left into a new right sibling and links
// that sibling into the parent, growing a new root when left was the root.
func (t *Tree[K, V]) splitNode(left *node[K, V]) *node[K, V] {
	right := t.pool.allocate(left.nodeType)
	mid := left.size() / 2
	right.entries = append(right.entries, left.entries[mid:]...)
	left.truncate(mid)

	right.prev = left.id
	right.next = left.next
	if left.next != 0 {
		t.pool.get(left.next).prev = right.id
	}
	left.next = right.id

	if !right.isLeaf() {
		for _, e := range right.entries {
			t.pool.get(e.child).parent = right.id
		}
	}

	t.incr("split", &t.splits)
	t.logger.Trace("split node", "type", left.nodeType, "left", left.id, "right", right.id,
		"separator", right.minKey())

	if left.parent == 0 {
		if left.id != t.root {
			panic(errors.AssertionFailedf("btree: node %d has no parent but is not the root", left.id))
		}
		root := t.pool.allocate(IndexNode)
		root.entries = append(root.entries,
			entry[K, V]{key: left.minKey(), child: left.id},
			entry[K, V]{key: right.minKey(), child: right.id},
		)
		left.parent, right.parent = root.id, root.id
		t.root = root.id
		t.logger.Trace("grew new root", "root", root.id)
		return right
	}

	t.insertNode(t.pool.get(left.parent), entry[K, V]{key: right.minKey(), child: right.id})
	return right
}
