/*
Package tree provides an append-only tree indexed by node key.

Nodes live in a single map (arena) and refer to each other by key, never by
pointer. Children lists only grow, so a Tree cannot contain cycles and the
insertion order of keys is a valid topological order.
*/
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when a key is inserted twice.
	ErrDuplicateKey = errors.New("duplicate node key")
	// ErrParentNotFound is returned when a node references a parent that was not inserted before it.
	ErrParentNotFound = errors.New("parent node not found")
	// ErrRootExists is returned when a second root is inserted.
	ErrRootExists = errors.New("tree already has a root")
	// ErrEmptyKey is returned for nodes without a key.
	ErrEmptyKey = errors.New("node key must not be empty")
)

// Node is a single entry of the tree.
// An empty ParentKey marks the root.
type Node[T any] struct {
	Key       string
	ParentKey string
	Children  []string
	Depth     int
	Data      T
}

// IsRoot reports whether the node has no parent.
func (n *Node[T]) IsRoot() bool {
	return n.ParentKey == ""
}

// IsLeaf reports whether the node has no children.
func (n *Node[T]) IsLeaf() bool {
	return len(n.Children) == 0
}

// Tree holds nodes keyed by identifier.
// It is not safe for concurrent mutation.
type Tree[T any] struct {
	nodes map[string]*Node[T]
	order []string
	root  string
}

// New creates an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{
		nodes: make(map[string]*Node[T]),
	}
}

// Add inserts a node under parentKey. An empty parentKey inserts the root.
func (t *Tree[T]) Add(key, parentKey string, data T) (*Node[T], error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if _, exists := t.nodes[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	node := &Node[T]{Key: key, ParentKey: parentKey, Data: data}

	if parentKey == "" {
		if t.root != "" {
			return nil, fmt.Errorf("%w: %s", ErrRootExists, t.root)
		}
		t.root = key
	} else {
		parent, ok := t.nodes[parentKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s (child %s)", ErrParentNotFound, parentKey, key)
		}
		node.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, key)
	}

	t.nodes[key] = node
	t.order = append(t.order, key)
	return node, nil
}

// Get returns the node for key.
func (t *Tree[T]) Get(key string) (*Node[T], bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] {
	if t.root == "" {
		return nil
	}
	return t.nodes[t.root]
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int {
	return len(t.order)
}

// Keys returns all keys in insertion order.
func (t *Tree[T]) Keys() []string {
	keys := make([]string, len(t.order))
	copy(keys, t.order)
	return keys
}

// Leaves returns every node without children, in insertion order.
func (t *Tree[T]) Leaves() []*Node[T] {
	var leaves []*Node[T]
	for _, key := range t.order {
		if n := t.nodes[key]; n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Ancestors returns the chain from the node's parent up to the root.
func (t *Tree[T]) Ancestors(key string) []*Node[T] {
	var chain []*Node[T]
	n, ok := t.nodes[key]
	for ok && n.ParentKey != "" {
		n, ok = t.nodes[n.ParentKey]
		if ok {
			chain = append(chain, n)
		}
	}
	return chain
}

// Walk visits the subtree rooted at key breadth-first.
// Returning false from fn skips the children of that node.
func (t *Tree[T]) Walk(key string, fn func(*Node[T]) bool) {
	queue := []string{key}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		n, ok := t.nodes[cur]
		if !ok {
			continue
		}
		if fn(n) {
			queue = append(queue, n.Children...)
		}
	}
}

type wireNode[T any] struct {
	Key    string `json:"key"`
	Parent string `json:"parent,omitempty"`
	Depth  int    `json:"depth"`
	Data   T      `json:"data"`
}

// MarshalJSON encodes the nodes in insertion order.
func (t *Tree[T]) MarshalJSON() ([]byte, error) {
	nodes := make([]wireNode[T], 0, len(t.order))
	for _, key := range t.order {
		n := t.nodes[key]
		nodes = append(nodes, wireNode[T]{Key: n.Key, Parent: n.ParentKey, Depth: n.Depth, Data: n.Data})
	}
	return json.Marshal(nodes)
}

// UnmarshalJSON rebuilds the tree by replaying insertions.
func (t *Tree[T]) UnmarshalJSON(data []byte) error {
	var nodes []wireNode[T]
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}

	fresh := New[T]()
	for _, n := range nodes {
		if _, err := fresh.Add(n.Key, n.Parent, n.Data); err != nil {
			return fmt.Errorf("failed to rebuild tree: %w", err)
		}
	}
	*t = *fresh
	return nil
}
