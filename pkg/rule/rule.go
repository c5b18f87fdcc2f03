// Package rule defines the rule graph: ordered lists of transformed
// invocations whose children are either shared meshes or producers that
// lazily expand into further rules. Building a rule never has side effects;
// producers only run when the graph is expanded.
package rule

import (
	"slices"

	"github.com/chazu/ramify/pkg/mesh"
	"github.com/chazu/ramify/pkg/transform"
)

// Producer defers the structure of a subrule until expansion. Expand is
// called again on every visit and its result is never cached, so producers
// may be randomized or carry their own recursion state. Expand must be safe
// to call repeatedly.
type Producer interface {
	Expand() *Rule
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func() *Rule

// Expand calls f.
func (f ProducerFunc) Expand() *Rule {
	return f()
}

// ChildKind distinguishes the two kinds of invocation targets.
type ChildKind int

const (
	ChildMesh     ChildKind = iota // terminal mesh reference
	ChildProducer                  // deferred subrule
)

func (k ChildKind) String() string {
	switch k {
	case ChildMesh:
		return "mesh"
	case ChildProducer:
		return "producer"
	default:
		return "unknown"
	}
}

// Child is the target of an invocation: a mesh leaf or a producer.
type Child struct {
	kind     ChildKind
	mesh     *mesh.Mesh
	producer Producer
}

// Mesh returns a leaf child referencing m. The mesh is aliased, not copied.
func Mesh(m *mesh.Mesh) Child {
	return Child{kind: ChildMesh, mesh: m}
}

// Defer returns a child that expands p when visited.
func Defer(p Producer) Child {
	return Child{kind: ChildProducer, producer: p}
}

// Cube returns a leaf child for the shared unit cube.
func Cube() Child {
	return Mesh(mesh.Cube())
}

// IcoSphere returns a leaf child for the shared icosphere.
func IcoSphere() Child {
	return Mesh(mesh.IcoSphere())
}

// Kind returns the child kind.
func (c Child) Kind() ChildKind {
	return c.kind
}

// MeshRef returns the referenced mesh, or nil for producers.
func (c Child) MeshRef() *mesh.Mesh {
	return c.mesh
}

// Producer returns the producer, or nil for meshes.
func (c Child) Producer() Producer {
	return c.producer
}

// Entry is one invocation: an optional local transform applied to a child.
type Entry struct {
	transform   transform.Transform
	transformed bool
	child       Child
}

// Transform returns the local transform and whether one is set. An entry
// without a transform inherits its parent's frame unchanged.
func (e Entry) Transform() (transform.Transform, bool) {
	return e.transform, e.transformed
}

// Child returns the invocation target.
func (e Entry) Child() Child {
	return e.child
}

// Rule is an ordered composition of invocations.
type Rule struct {
	entries []Entry
}

// New returns a rule with no invocations.
func New() *Rule {
	return &Rule{}
}

// Empty is an alias for New.
func Empty() *Rule {
	return New()
}

// Push appends one invocation of child per branch of b. When b is nil or has
// no branches a single untransformed invocation is appended. All appended
// entries reference the same child. Push returns r for chaining.
func (r *Rule) Push(b transform.Brancher, child Child) *Rule {
	var branches []transform.Transform
	if b != nil {
		branches = b.Branches()
	}
	if len(branches) == 0 {
		r.entries = append(r.entries, Entry{child: child})
		return r
	}
	r.entries = slices.Grow(r.entries, len(branches))
	for _, t := range branches {
		r.entries = append(r.entries, Entry{transform: t, transformed: true, child: child})
	}
	return r
}

// PushRule is Push with a rule child.
func (r *Rule) PushRule(b transform.Brancher, sub *Rule) *Rule {
	return r.Push(b, Defer(sub))
}

// Expand returns r itself, so a rule can be invoked as a child.
func (r *Rule) Expand() *Rule {
	return r
}

// Len returns the number of entries.
func (r *Rule) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Entry returns the i-th entry.
func (r *Rule) Entry(i int) Entry {
	return r.entries[i]
}

// Entries returns a copy of the entries.
func (r *Rule) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
