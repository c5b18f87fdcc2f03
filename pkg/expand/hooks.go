package expand

// Hooks receives traversal events. Implementations are called from the
// traversal goroutine and must not block.
type Hooks interface {
	// OnExpand records a producer expansion that yielded entries invocations.
	OnExpand(entries int)
	// OnEmit records an emitted mesh.
	OnEmit(m OutputMesh)
	// OnWorklist records the worklist size after a producer expansion.
	OnWorklist(size int)
}

// NoopHooks ignores all events.
type NoopHooks struct{}

func (NoopHooks) OnExpand(int)      {}
func (NoopHooks) OnEmit(OutputMesh) {}
func (NoopHooks) OnWorklist(int)    {}
