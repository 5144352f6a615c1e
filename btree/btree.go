// Package btree implements an in-memory B+Tree keyed by any ordered type.
//
// Unlike a classical B+Tree, an index node holds exactly one key per child:
// the key of each index entry is the minimum key reachable through it. Nodes
// of every level are doubly linked to their siblings, which gives ordered
// traversal over the leaves and lets deletion find merge partners across
// parent boundaries.
//
// A single reader/writer lock guards the whole tree.
package btree

import (
	"cmp"
	"sync"

	metrics "github.com/armon/go-metrics"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-hclog"
)

const (
	// MinOrder is the smallest fanout New accepts
	MinOrder = 4

	// DefaultOrder is a reasonable fanout for in-memory use
	DefaultOrder = 16
)

// Option configures a Tree
type Option func(*options)

type options struct {
	logger  hclog.Logger
	metrics *metrics.Metrics
}

// WithLogger sets the diagnostic logger. Structural changes (splits, merges,
// root changes) are logged at Trace level.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics emits split, merge and collapse counters to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Stats describes the shape of a tree and its structural history
type Stats struct {
	Len       int
	Height    int
	Nodes     int
	Leaves    int
	FreeIDs   int
	Splits    uint64
	Merges    uint64
	Collapses uint64
}

// Tree is a B+Tree mapping keys of type K to values of type V
type Tree[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	order   int
	root    NodeID
	head    NodeID
	pool    *nodePool[K, V]
	count   int
	logger  hclog.Logger
	metrics *metrics.Metrics

	splits    uint64
	merges    uint64
	collapses uint64
}

// New creates an empty tree whose nodes hold at most order entries
func New[K cmp.Ordered, V any](order int, opts ...Option) (*Tree[K, V], error) {
	if order < MinOrder {
		return nil, errors.Wrapf(ErrInvalidOrder, "order %d is below %d", order, MinOrder)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}

	return &Tree[K, V]{
		order:   order,
		pool:    newNodePool[K, V](order),
		logger:  o.logger.Named("btree"),
		metrics: o.metrics,
	}, nil
}

// Order returns the maximum number of entries per node
func (t *Tree[K, V]) Order() int {
	return t.order
}

// Len returns the number of keys in the tree
func (t *Tree[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.count
}

// Height returns the number of levels, 0 for an empty tree
func (t *Tree[K, V]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.height()
}

func (t *Tree[K, V]) height() int {
	h := 0
	for id := t.root; id != 0; {
		h++
		n := t.pool.get(id)
		if n.isLeaf() {
			break
		}
		id = n.entries[0].child
	}
	return h
}

// Get returns the value stored at key
func (t *Tree[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var zero V
	if t.root == 0 || cmp.Less(key, t.pool.get(t.root).minKey()) {
		return zero, false
	}

	leaf := t.findLeaf(key)
	pos, found := leaf.search(key)
	if !found {
		return zero, false
	}
	return leaf.entries[pos].value, true
}

// Put stores value at key. If the key was already present, the previous
// value is returned with replaced set.
func (t *Tree[K, V]) Put(key K, value V) (old V, replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root == 0 {
		if t.head != 0 {
			panic(errors.AssertionFailedf("btree: empty tree has head %d", t.head))
		}
		leaf := t.pool.allocate(LeafNode)
		leaf.insertAt(0, entry[K, V]{key: key, value: value})
		t.root, t.head = leaf.id, leaf.id
		t.count = 1
		t.logger.Trace("created root leaf", "node", leaf.id)
		return old, false
	}

	leaf := t.findLeaf(key)
	old, replaced = t.insertNode(leaf, entry[K, V]{key: key, value: value})
	if !replaced {
		t.count++
	}
	return old, replaced
}

// Remove deletes key and returns the value that was stored at it
func (t *Tree[K, V]) Remove(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero V
	if t.root == 0 || cmp.Less(key, t.pool.get(t.root).minKey()) {
		return zero, false
	}

	leaf := t.findLeaf(key)
	removed, found := t.deleteKey(leaf, key)
	if !found {
		return zero, false
	}
	t.count--
	return removed.value, true
}

// Clear removes every key
func (t *Tree[K, V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reset()
}

func (t *Tree[K, V]) reset() {
	t.pool.reset()
	t.root, t.head = 0, 0
	t.count = 0
	t.logger.Trace("tree cleared")
}

// Stats returns the current shape of the tree
func (t *Tree[K, V]) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	live, free := t.pool.stats()
	leaves := 0
	for id := t.head; id != 0; id = t.pool.get(id).next {
		leaves++
	}
	return Stats{
		Len:       t.count,
		Height:    t.height(),
		Nodes:     live,
		Leaves:    leaves,
		FreeIDs:   free,
		Splits:    t.splits,
		Merges:    t.merges,
		Collapses: t.collapses,
	}
}

// findLeaf descends from the root to the leaf that holds, or would hold, key.
// The tree must not be empty.
func (t *Tree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.pool.get(t.root)
	for !n.isLeaf() {
		n = t.pool.get(n.entries[n.childIndex(key)].child)
	}
	return n
}

// propagateMinKey renames oldKey to newKey in the ancestors of n, climbing
// for as long as the renamed entry is the first of its node.
func (t *Tree[K, V]) propagateMinKey(n *node[K, V], oldKey, newKey K) {
	for id := n.parent; id != 0; {
		p := t.pool.get(id)
		pos, found := p.search(oldKey)
		if !found {
			panic(errors.AssertionFailedf("btree: key %v of node %d not found in parent %d", oldKey, n.id, p.id))
		}
		p.entries[pos].key = newKey
		if pos != 0 {
			return
		}
		id = p.parent
	}
}

func (t *Tree[K, V]) incr(name string, counter *uint64) {
	*counter++
	if t.metrics != nil {
		t.metrics.IncrCounter([]string{"btree", name}, 1)
	}
}
