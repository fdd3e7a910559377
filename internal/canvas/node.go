// Package canvas provides a minimal retained node tree for driving the
// relocation engine end to end.
//
// Nodes are declared in a tree. A node used as a portal container also
// receives relocated children from its manager; those are drawn after the
// node's declared children, in the manager's order.
package canvas

import (
	"fmt"
	"slices"

	"stageport.dev/stageport/internal/scene"
)

// Kind is the type of a node
type Kind int

const (
	KindStage Kind = iota
	KindLayer
	KindGroup
	KindShape
)

func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindLayer:
		return "layer"
	case KindGroup:
		return "group"
	case KindShape:
		return "shape"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AuditName is the capitalized kind used in diagnostics, e.g. "Layer"
func (k Kind) AuditName() string {
	switch k {
	case KindStage:
		return "Stage"
	case KindLayer:
		return "Layer"
	case KindGroup:
		return "Group"
	case KindShape:
		return "Shape"
	default:
		return k.String()
	}
}

// ParseKind parses a container kind. Empty means layer.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "layer":
		return KindLayer, nil
	case "group":
		return KindGroup, nil
	case "shape":
		return KindShape, nil
	case "stage":
		return KindStage, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q (expected layer or group)", s)
	}
}

// Node is one element of the retained tree
type Node struct {
	kind      Kind
	name      string
	text      string
	container string
	parent    *Node
	children  []*Node
	relocated []*Node
	renders   int
}

// NewNode creates a detached node
func NewNode(kind Kind, name string) *Node {
	return &Node{kind: kind, name: name}
}

// NewStage creates a root node
func NewStage(name string) *Node { return NewNode(KindStage, name) }

// NewLayer creates a layer node
func NewLayer(name string) *Node { return NewNode(KindLayer, name) }

// NewGroup creates a group node
func NewGroup(name string) *Node { return NewNode(KindGroup, name) }

// NewShape creates a leaf node carrying text
func NewShape(name, text string) *Node {
	n := NewNode(KindShape, name)
	n.text = text
	return n
}

// Kind returns the node kind
func (n *Node) Kind() Kind { return n.kind }

// Name returns the node name
func (n *Node) Name() string { return n.name }

// String returns the node name so payload lists print readably
func (n *Node) String() string { return n.name }

// Text returns the text drawn for a shape
func (n *Node) Text() string { return n.text }

// SetText replaces the text drawn for a shape
func (n *Node) SetText(text string) { n.text = text }

// Parent returns the node this one is attached to, declared or relocated
func (n *Node) Parent() *Node { return n.parent }

// ContainerID returns the portal container id this node serves, if any
func (n *Node) ContainerID() string { return n.container }

// ServeAs marks the node as the portal container with the given id
func (n *Node) ServeAs(id string) *Node {
	n.container = id
	return n
}

// Renders returns how many times a manager committed into this node
func (n *Node) Renders() int { return n.renders }

// Add appends declared children, detaching them from any previous parent
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c.parent != nil {
			c.parent.detach(c)
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// Remove detaches a declared child and reports whether it was present
func (n *Node) Remove(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true
}

// Declared returns the declared children in order
func (n *Node) Declared() []*Node {
	return slices.Clone(n.children)
}

// Relocated returns the children received from the node's manager
func (n *Node) Relocated() []*Node {
	return slices.Clone(n.relocated)
}

// Children returns the draw order: declared children, then relocated ones
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children)+len(n.relocated))
	out = append(out, n.children...)
	return append(out, n.relocated...)
}

// Find returns the first node named name in draw order, searching n itself
// and every descendant
func (n *Node) Find(name string) *Node {
	if n.name == name {
		return n
	}
	for _, c := range n.Children() {
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Render replaces the relocated children with the manager's content. It makes
// Node usable as a manager.Renderer.
func (n *Node) Render(_ string, entries []scene.Entry) {
	for _, c := range n.relocated {
		if c.parent == n {
			c.parent = nil
		}
	}
	n.relocated = n.relocated[:0]
	for _, e := range entries {
		c := AsNode(e)
		c.parent = n
		n.relocated = append(n.relocated, c)
	}
	n.renders++
}

// ClearRelocated drops every relocated child, as happens when the node's
// container is torn down
func (n *Node) ClearRelocated() {
	n.Render(n.container, nil)
}

// AsNode returns the payload of e as a node, wrapping other payloads in a shape
func AsNode(e scene.Entry) *Node {
	switch p := e.Payload.(type) {
	case *Node:
		return p
	case string:
		return NewShape("#"+e.Key.String(), p)
	default:
		return NewShape("#"+e.Key.String(), fmt.Sprint(p))
	}
}

func (n *Node) detach(child *Node) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
		return
	}
	if i := slices.Index(n.relocated, child); i >= 0 {
		n.relocated = slices.Delete(n.relocated, i, i+1)
	}
}
