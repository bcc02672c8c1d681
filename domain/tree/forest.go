package tree

import (
	"sort"

	"github.com/fundwit/go-commons/types"
)

// MaxDepth is the guard against pathological nesting, mostly aimed at
// trees extracted from untrusted AI replies.
const MaxDepth = 50

// Node is one row of a node arena. ParentID 0 marks a root.
type Node struct {
	ID       types.ID
	ParentID types.ID
	Order    int
}

// Forest is an id-indexed arena over a set of nodes. Children are ordered by
// Order first, then by ID. Nodes referencing an unknown parent are treated as
// roots. Acyclicity is guaranteed by construction at the persistence layer:
// a node is only ever created under an already existing parent.
type Forest struct {
	roots    []types.ID
	children map[types.ID][]types.ID
	nodes    map[types.ID]Node
}

func Build(nodes []Node) *Forest {
	f := &Forest{
		children: map[types.ID][]types.ID{},
		nodes:    map[types.ID]Node{},
	}
	for _, n := range nodes {
		f.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID == 0 {
			f.roots = append(f.roots, n.ID)
			continue
		}
		if _, found := f.nodes[n.ParentID]; !found {
			f.roots = append(f.roots, n.ID)
			continue
		}
		f.children[n.ParentID] = append(f.children[n.ParentID], n.ID)
	}

	f.sortSiblings(f.roots)
	for _, ids := range f.children {
		f.sortSiblings(ids)
	}
	return f
}

func (f *Forest) sortSiblings(ids []types.ID) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := f.nodes[ids[i]], f.nodes[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

func (f *Forest) Size() int {
	return len(f.nodes)
}

func (f *Forest) Roots() []types.ID {
	return f.roots
}

func (f *Forest) Children(id types.ID) []types.ID {
	return f.children[id]
}

func (f *Forest) Node(id types.ID) (Node, bool) {
	n, found := f.nodes[id]
	return n, found
}

// Depth returns the number of levels of the deepest subtree, 0 for an
// empty forest.
func (f *Forest) Depth() int {
	max := 0
	type frame struct {
		id    types.ID
		level int
	}
	stack := make([]frame, 0, len(f.roots))
	for _, id := range f.roots {
		stack = append(stack, frame{id: id, level: 1})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.level > max {
			max = top.level
		}
		for _, child := range f.children[top.id] {
			stack = append(stack, frame{id: child, level: top.level + 1})
		}
	}
	return max
}

// PathDepth returns the level of the given node counted from its root,
// 1 for a root, 0 when the node is unknown.
func (f *Forest) PathDepth(id types.ID) int {
	depth := 0
	for {
		n, found := f.nodes[id]
		if !found {
			return depth
		}
		depth++
		if n.ParentID == 0 {
			return depth
		}
		if _, found := f.nodes[n.ParentID]; !found {
			return depth
		}
		id = n.ParentID
	}
}

// Walk traverses the forest depth-first in pre-order, siblings in their
// sort order. The walked node's parent id is 0 for roots.
func (f *Forest) Walk(visit func(id, parentID types.ID) error) error {
	var walk func(id, parentID types.ID) error
	walk = func(id, parentID types.ID) error {
		if err := visit(id, parentID); err != nil {
			return err
		}
		for _, child := range f.children[id] {
			if err := walk(child, id); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range f.roots {
		if err := walk(root, 0); err != nil {
			return err
		}
	}
	return nil
}
