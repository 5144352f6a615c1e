package btree

import (
	"cmp"

	"github.com/cockroachdb/errors"
)

// nodePool owns every node of a tree. Nodes are addressed by NodeID and
// released IDs are reused. The pool is guarded by the tree's lock.
type nodePool[K cmp.Ordered, V any] struct {
	order   int
	nodes   []*node[K, V] // indexed by NodeID, slot 0 is the null node
	freeIDs []NodeID
	live    int
}

// newNodePool creates a new node pool for nodes holding up to order entries
func newNodePool[K cmp.Ordered, V any](order int) *nodePool[K, V] {
	return &nodePool[K, V]{
		order: order,
		nodes: make([]*node[K, V], 1),
	}
}

// allocate creates an empty node of the given type
func (p *nodePool[K, V]) allocate(nodeType NodeType) *node[K, V] {
	var id NodeID
	if len(p.freeIDs) > 0 {
		id = p.freeIDs[len(p.freeIDs)-1]
		p.freeIDs = p.freeIDs[:len(p.freeIDs)-1]
	} else {
		id = NodeID(len(p.nodes))
		p.nodes = append(p.nodes, nil)
	}

	n := &node[K, V]{
		id:       id,
		nodeType: nodeType,
		entries:  make([]entry[K, V], 0, p.order),
	}
	p.nodes[id] = n
	p.live++
	return n
}

// lookup resolves a NodeID, reporting whether it refers to a live node
func (p *nodePool[K, V]) lookup(id NodeID) (*node[K, V], bool) {
	if id == 0 || int(id) >= len(p.nodes) || p.nodes[id] == nil {
		return nil, false
	}
	return p.nodes[id], true
}

// get resolves a NodeID. Resolving the null or a released ID is a logic
// defect in the caller.
func (p *nodePool[K, V]) get(id NodeID) *node[K, V] {
	n, ok := p.lookup(id)
	if !ok {
		panic(errors.AssertionFailedf("btree: dangling reference to node %d", id))
	}
	return n
}

// release destroys a node and returns its ID to the pool for reuse
func (p *nodePool[K, V]) release(id NodeID) {
	n := p.get(id)
	clear(n.entries)
	n.entries = nil
	n.parent, n.prev, n.next = 0, 0, 0
	p.nodes[id] = nil
	p.freeIDs = append(p.freeIDs, id)
	p.live--
}

// reset drops every node
func (p *nodePool[K, V]) reset() {
	clear(p.nodes)
	p.nodes = p.nodes[:1]
	p.freeIDs = p.freeIDs[:0]
	p.live = 0
}

// stats returns the number of live nodes and of IDs waiting for reuse
func (p *nodePool[K, V]) stats() (liveNodes, freeIDs int) {
	return p.live, len(p.freeIDs)
}
