package btree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidOrder is returned by New when the requested fanout is too small
	ErrInvalidOrder = errors.New("btree: invalid order")

	// ErrInvariant is matched by every *InvariantError
	ErrInvariant = errors.New("btree: invariant violated")
)

// Invariant names a structural property checked by Tree.Check.
type Invariant uint8

const (
	// InvariantOrder: keys within a node are strictly ascending.
	InvariantOrder Invariant = iota + 1
	// InvariantIndex: every index entry's key is its child's minimum key,
	// the child points back at the entry's node, and child ranges do not overlap.
	InvariantIndex
	// InvariantChain: at every level the sibling chain visits the nodes in
	// breadth-first order, links back consistently and is key-ascending.
	InvariantChain
	// InvariantRoot: the root has no parent and no siblings, and the head is
	// the leftmost leaf.
	InvariantRoot
	// InvariantOccupancy: every node holds between 1 and order entries and
	// the node and entry counts add up.
	InvariantOccupancy
)

func (i Invariant) String() string {
	switch i {
	case InvariantOrder:
		return "key order"
	case InvariantIndex:
		return "index/child consistency"
	case InvariantChain:
		return "sibling chain"
	case InvariantRoot:
		return "root shape"
	case InvariantOccupancy:
		return "occupancy"
	default:
		return fmt.Sprintf("Invariant(%d)", uint8(i))
	}
}

// InvariantError reports the first structural violation found by Tree.Check.
type InvariantError struct {
	Invariant Invariant
	Node      NodeID
	Keys      string // the offending node's key set
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("btree: %s violated at node %d %s: %s", e.Invariant, e.Node, e.Keys, e.Detail)
}

// Is lets errors.Is(err, ErrInvariant) match any InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
