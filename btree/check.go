package btree

import (
	"cmp"
	"fmt"
)

// Check walks the whole tree breadth-first and verifies its structural
// invariants, returning an *InvariantError for the first violation found.
// It visits every node and is meant for tests and debugging.
func (t *Tree[K, V]) Check() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.check()
}

func (t *Tree[K, V]) check() error {
	if t.root == 0 {
		if t.head != 0 || t.count != 0 {
			return &InvariantError{Invariant: InvariantRoot, Keys: "[]",
				Detail: fmt.Sprintf("empty tree has head %d and %d keys", t.head, t.count)}
		}
		if live, _ := t.pool.stats(); live != 0 {
			return &InvariantError{Invariant: InvariantOccupancy, Keys: "[]",
				Detail: fmt.Sprintf("empty tree holds %d live nodes", live)}
		}
		return nil
	}

	root, ok := t.pool.lookup(t.root)
	if !ok {
		return &InvariantError{Invariant: InvariantRoot, Node: t.root, Keys: "[]", Detail: "root is not a live node"}
	}
	if root.parent != 0 || root.prev != 0 || root.next != 0 {
		return t.violation(root, InvariantRoot, "root has parent %d, prev %d, next %d", root.parent, root.prev, root.next)
	}

	visited, keys := 0, 0
	level := []*node[K, V]{root}
	for len(level) > 0 {
		if level[0].prev != 0 {
			return t.violation(level[0], InvariantChain, "first node of its level has prev %d", level[0].prev)
		}

		cursor := level[0].id
		var next []*node[K, V]
		for _, n := range level {
			visited++
			if err := t.checkNode(n, cursor, level[0].nodeType); err != nil {
				return err
			}
			cursor = n.next

			if n.isLeaf() {
				keys += n.size()
				continue
			}
			for _, e := range n.entries {
				next = append(next, t.pool.get(e.child))
			}
		}
		if cursor != 0 {
			last := level[len(level)-1]
			return t.violation(last, InvariantChain, "last node of its level has next %d", cursor)
		}
		level = next
	}

	head, ok := t.pool.lookup(t.head)
	if !ok {
		return t.violation(root, InvariantRoot, "head %d is not a live node", t.head)
	}
	if !head.isLeaf() || head.prev != 0 || cmp.Compare(head.minKey(), root.minKey()) != 0 {
		return t.violation(head, InvariantRoot, "head is not the leftmost leaf (root min %v)", root.minKey())
	}
	if live, _ := t.pool.stats(); live != visited {
		return t.violation(root, InvariantOccupancy, "%d live nodes but %d reachable", live, visited)
	}
	if keys != t.count {
		return t.violation(root, InvariantOccupancy, "%d keys in leaves but count is %d", keys, t.count)
	}
	return nil
}

// checkNode verifies a single node visited in breadth-first order, where
// cursor is the node the sibling chain says should come next.
func (t *Tree[K, V]) checkNode(n *node[K, V], cursor NodeID, levelType NodeType) error {
	if n.id != cursor {
		return t.violation(n, InvariantChain, "visited in tree order, but chain expected node %d", cursor)
	}
	if n.nodeType != levelType {
		return t.violation(n, InvariantChain, "%s node on a level of %s nodes", n.nodeType, levelType)
	}
	if n.size() == 0 || n.size() > t.order {
		return t.violation(n, InvariantOccupancy, "holds %d entries, order is %d", n.size(), t.order)
	}
	for i := 1; i < n.size(); i++ {
		if cmp.Compare(n.entries[i-1].key, n.entries[i].key) >= 0 {
			return t.violation(n, InvariantOrder, "key %v at %d is not below key %v", n.entries[i-1].key, i-1, n.entries[i].key)
		}
	}
	if (n.prev != 0 || n.next != 0) && n.parent == 0 {
		return t.violation(n, InvariantRoot, "node has siblings but no parent")
	}
	if n.next != 0 {
		next, ok := t.pool.lookup(n.next)
		if !ok {
			return t.violation(n, InvariantChain, "next node %d is not live", n.next)
		}
		if next.prev != n.id {
			return t.violation(n, InvariantChain, "next node %d links back to %d", next.id, next.prev)
		}
		if next.size() == 0 || cmp.Compare(n.maxKey(), next.minKey()) >= 0 {
			return t.violation(n, InvariantChain, "max key is not below the min key of next node %s", next.keysString())
		}
	}

	if n.isLeaf() {
		return nil
	}
	for i, e := range n.entries {
		child, ok := t.pool.lookup(e.child)
		if !ok {
			return t.violation(n, InvariantIndex, "key %v points at dead node %d", e.key, e.child)
		}
		if child.parent != n.id {
			return t.violation(n, InvariantIndex, "child %d of key %v points at parent %d", child.id, e.key, child.parent)
		}
		if child.size() == 0 || cmp.Compare(e.key, child.minKey()) != 0 {
			return t.violation(n, InvariantIndex, "key %v does not match child min of %s", e.key, child.keysString())
		}
		if i+1 < n.size() && cmp.Compare(child.maxKey(), n.entries[i+1].key) >= 0 {
			return t.violation(n, InvariantIndex, "child %s overlaps key %v", child.keysString(), n.entries[i+1].key)
		}
	}
	return nil
}

func (t *Tree[K, V]) violation(n *node[K, V], inv Invariant, format string, args ...interface{}) error {
	return &InvariantError{
		Invariant: inv,
		Node:      n.id,
		Keys:      n.keysString(),
		Detail:    fmt.Sprintf(format, args...),
	}
}
