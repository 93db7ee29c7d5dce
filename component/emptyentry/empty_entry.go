// Package emptyentry is a demonstration component with no ports and no
// workers, used for pure state-machine exercises: walk
// Loaded→Idle→Loaded with nothing to populate.
package emptyentry

import "github.com/go-omxil/omxilcore/internal/component"

// Role is the capability tag this demo component advertises.
const Role = "empty.entry"

// EmptyEntry implements component.Processor with zero ports and zero
// workers: Loaded→Idle completes immediately (no port ever needs
// populating) and Idle→Executing starts nothing.
type EmptyEntry struct{}

// New constructs an EmptyEntry instance.
func New() *EmptyEntry { return &EmptyEntry{} }

// PortSpecs implements component.Processor: no ports.
func (EmptyEntry) PortSpecs() []component.PortSpec { return nil }

// WorkerSteps implements component.Processor: no workers.
func (EmptyEntry) WorkerSteps(*component.Component) []component.WorkerStep { return nil }

var _ component.Processor = (*EmptyEntry)(nil)
