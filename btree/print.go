package btree

import (
	"fmt"
	"strings"
)

// DebugPrint renders the tree one level per line, each node as |k1 k2 ...|.
// An empty tree renders as "{}".
func (t *Tree[K, V]) DebugPrint() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == 0 {
		return "{}\n"
	}

	var b strings.Builder
	for id := t.root; id != 0; {
		n := t.pool.get(id)
		for sib := n; ; sib = t.pool.get(sib.next) {
			b.WriteString(" |")
			for i, e := range sib.entries {
				if i > 0 {
					b.WriteByte(' ')
				}
				fmt.Fprint(&b, e.key)
			}
			b.WriteString("| ")
			if sib.next == 0 {
				break
			}
		}
		b.WriteByte('\n')
		if n.isLeaf() {
			break
		}
		id = n.entries[0].child
	}
	return b.String()
}

// String implements fmt.Stringer using DebugPrint
func (t *Tree[K, V]) String() string {
	return t.DebugPrint()
}
