// Package expand walks a rule graph and emits one OutputMesh per mesh leaf.
//
// Traversal uses an explicit LIFO worklist of (accumulated transform, child)
// entries rather than recursion, so memory is bounded by depth times
// branching and infinite, self-referential graphs can be consumed lazily. A
// producer's entries are pushed in reverse so that meshes are emitted in
// declaration order (depth-first, pre-order).
//
// Expansion never fails. A producer that recurses without reducing its own
// state makes Collect run out of memory and an unbounded pull loop run
// forever; bounding recursion is the rule author's job.
package expand

import (
	"iter"

	"github.com/chazu/ramify/pkg/rule"
	"github.com/chazu/ramify/pkg/transform"
)

// pending is one worklist entry.
type pending struct {
	transform transform.Transform
	child     rule.Child
}

// Iterator is a lazy, pull-based traversal. It is not safe for concurrent
// use.
type Iterator struct {
	stack []pending
	hooks Hooks
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithHooks installs expansion hooks.
func WithHooks(h Hooks) Option {
	return func(it *Iterator) {
		if h != nil {
			it.hooks = h
		}
	}
}

// New returns an iterator positioned before the first mesh of root. A nil
// root yields nothing.
func New(root rule.Producer, opts ...Option) *Iterator {
	it := &Iterator{hooks: NoopHooks{}}
	for _, opt := range opts {
		opt(it)
	}
	if root != nil {
		it.stack = append(it.stack, pending{
			transform: transform.Identity(),
			child:     rule.Defer(root),
		})
	}
	return it
}

// Next expands the worklist until a mesh is reached and returns it. The
// boolean is false once the graph is exhausted.
func (it *Iterator) Next() (OutputMesh, bool) {
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack[len(it.stack)-1] = pending{}
		it.stack = it.stack[:len(it.stack)-1]

		switch top.child.Kind() {
		case rule.ChildMesh:
			m := top.child.MeshRef()
			if m == nil {
				continue
			}
			out := OutputMesh{transform: top.transform, mesh: m}
			it.hooks.OnEmit(out)
			return out, true

		case rule.ChildProducer:
			p := top.child.Producer()
			if p == nil {
				continue
			}
			it.push(top.transform, p.Expand())
		}
	}
	return OutputMesh{}, false
}

// push schedules r's entries under parent, last entry first.
func (it *Iterator) push(parent transform.Transform, r *rule.Rule) {
	n := r.Len()
	it.hooks.OnExpand(n)
	for i := n - 1; i >= 0; i-- {
		e := r.Entry(i)
		acc := parent
		if local, ok := e.Transform(); ok {
			acc = transform.Compose(parent, local)
		}
		it.stack = append(it.stack, pending{transform: acc, child: e.Child()})
	}
	it.hooks.OnWorklist(len(it.stack))
}

// Pending returns the current worklist size.
func (it *Iterator) Pending() int {
	return len(it.stack)
}

// All returns the remaining meshes as a sequence. Stopping the range loop
// early leaves the iterator usable.
func (it *Iterator) All() iter.Seq[OutputMesh] {
	return func(yield func(OutputMesh) bool) {
		for {
			m, ok := it.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

// Generate returns a lazy sequence of root's meshes. Each range over the
// sequence starts a fresh traversal, re-invoking producers.
func Generate(root rule.Producer, opts ...Option) iter.Seq[OutputMesh] {
	return func(yield func(OutputMesh) bool) {
		for m := range New(root, opts...).All() {
			if !yield(m) {
				return
			}
		}
	}
}

// Take limits seq to its first n elements.
func Take(seq iter.Seq[OutputMesh], n int) iter.Seq[OutputMesh] {
	return func(yield func(OutputMesh) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for m := range seq {
			if !yield(m) {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	}
}

// Collect drains root eagerly. Only use it on graphs with bounded recursion.
func Collect(root rule.Producer, opts ...Option) []OutputMesh {
	var out []OutputMesh
	it := New(root, opts...)
	for {
		m, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}
