package btree

import (
	"cmp"
	"strings"
)

// Ascend calls fn for every key in ascending order until fn returns false.
// fn must not modify the tree.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	t.ascendFrom(t.head, 0, fn)
}

// AscendFrom calls fn for every key >= from in ascending order until fn
// returns false. fn must not modify the tree.
func (t *Tree[K, V]) AscendFrom(from K, fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 {
		return
	}
	id, pos := t.seek(from)
	t.ascendFrom(id, pos, fn)
}

// AscendRange calls fn for every key in [from, to) in ascending order until
// fn returns false. fn must not modify the tree.
func (t *Tree[K, V]) AscendRange(from, to K, fn func(key K, value V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 || !cmp.Less(from, to) {
		return
	}
	id, pos := t.seek(from)
	t.ascendFrom(id, pos, func(key K, value V) bool {
		if !cmp.Less(key, to) {
			return false
		}
		return fn(key, value)
	})
}

// seek returns the leaf and position of the first key >= from
func (t *Tree[K, V]) seek(from K) (NodeID, int) {
	leaf := t.findLeaf(from)
	pos, _ := leaf.search(from)
	return leaf.id, pos
}

func (t *Tree[K, V]) ascendFrom(id NodeID, pos int, fn func(K, V) bool) {
	for id != 0 {
		n := t.pool.get(id)
		for _, e := range n.entries[pos:] {
			if !fn(e.key, e.value) {
				return
			}
		}
		id, pos = n.next, 0
	}
}

// Min returns the smallest key and its value
func (t *Tree[K, V]) Min() (key K, value V, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.head == 0 {
		return key, value, false
	}
	e := t.pool.get(t.head).entries[0]
	return e.key, e.value, true
}

// Max returns the largest key and its value
func (t *Tree[K, V]) Max() (key K, value V, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 {
		return key, value, false
	}
	n := t.pool.get(t.root)
	for !n.isLeaf() {
		n = t.pool.get(n.entries[n.size()-1].child)
	}
	e := n.entries[n.size()-1]
	return e.key, e.value, true
}

// LeafString renders the leaf chain from the head, e.g. "{[a b], [c d]}".
func (t *Tree[K, V]) LeafString() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	b.WriteByte('{')
	for id := t.head; id != 0; {
		n := t.pool.get(id)
		if id != t.head {
			b.WriteString(", ")
		}
		b.WriteString(n.keysString())
		id = n.next
	}
	b.WriteByte('}')
	return b.String()
}
