package btree

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// binarySearchThreshold is the node size from which search switches from a
// linear scan to binary search.
const binarySearchThreshold = 8

// NodeType represents the type of a node
type NodeType uint8

const (
	// LeafNode is a node whose entries map keys to values
	LeafNode NodeType = iota

	// IndexNode is a node whose entries map keys to child nodes. The key of
	// each entry is the minimum key reachable through its child.
	IndexNode
)

func (t NodeType) String() string {
	switch t {
	case LeafNode:
		return "leaf"
	case IndexNode:
		return "index"
	default:
		return fmt.Sprintf("NodeType(%d)", uint8(t))
	}
}

// NodeID addresses a node in the tree's node pool. The zero NodeID is the
// null reference.
type NodeID uint32

// entry is one key slot of a node. Leaf entries use value, index entries
// use child.
type entry[K cmp.Ordered, V any] struct {
	key   K
	value V
	child NodeID
}

// node is a fixed-capacity, ordered run of entries. Parent and sibling
// links are NodeIDs resolved through the pool, never owning pointers.
type node[K cmp.Ordered, V any] struct {
	id       NodeID
	nodeType NodeType
	entries  []entry[K, V]
	parent   NodeID
	prev     NodeID
	next     NodeID
}

func (n *node[K, V]) isLeaf() bool {
	return n.nodeType == LeafNode
}

func (n *node[K, V]) size() int {
	return len(n.entries)
}

func (n *node[K, V]) full() bool {
	return len(n.entries) == cap(n.entries)
}

func (n *node[K, V]) minKey() K {
	return n.entries[0].key
}

func (n *node[K, V]) maxKey() K {
	return n.entries[len(n.entries)-1].key
}

// search returns the position of key in the node and whether it is present.
// When absent, the position is the number of entries less than key.
func (n *node[K, V]) search(key K) (int, bool) {
	if len(n.entries) >= binarySearchThreshold {
		return slices.BinarySearchFunc(n.entries, key, func(e entry[K, V], k K) int {
			return cmp.Compare(e.key, k)
		})
	}
	for i := range n.entries {
		switch c := cmp.Compare(n.entries[i].key, key); {
		case c == 0:
			return i, true
		case c > 0:
			return i, false
		}
	}
	return len(n.entries), false
}

// childIndex returns the entry to descend through for key: the greatest
// entry key <= key, or entry 0 when key is below the node minimum.
func (n *node[K, V]) childIndex(key K) int {
	i, found := n.search(key)
	if !found && i > 0 {
		i--
	}
	return i
}

// insertAt shifts the entries at and above pos right by one and stores e at pos.
func (n *node[K, V]) insertAt(pos int, e entry[K, V]) {
	n.entries = append(n.entries, entry[K, V]{})
	copy(n.entries[pos+1:], n.entries[pos:])
	n.entries[pos] = e
}

// removeAt shifts the entries above pos left by one and zeroes the vacated
// tail slot so it no longer references the removed value.
func (n *node[K, V]) removeAt(pos int) entry[K, V] {
	e := n.entries[pos]
	copy(n.entries[pos:], n.entries[pos+1:])
	last := len(n.entries) - 1
	n.entries[last] = entry[K, V]{}
	n.entries = n.entries[:last]
	return e
}

// truncate drops the entries from pos onwards, zeroing the vacated slots.
func (n *node[K, V]) truncate(pos int) {
	clear(n.entries[pos:])
	n.entries = n.entries[:pos]
}

func (n *node[K, V]) keysString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range n.entries {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, e.key)
	}
	b.WriteByte(']')
	return b.String()
}
