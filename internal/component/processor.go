package component

import "github.com/go-omxil/omxilcore/internal/port"

// PortSpec is what a concrete component tells the core about one port
// it wants constructed, equivalent to a plugin's constructor-time
// add_port call.
type PortSpec struct {
	Direction      port.Direction
	Domain         port.Domain
	Formats        port.FormatList
	BufferCountMin uint32
	BufferSize     uint32
}

// Processor is the small capability interface the core requires of a
// concrete plugin component (decoder, encoder, filter,
// source, sink): describe the ports it needs, and supply one Step per
// worker the core should run once the component enters Executing.
// Everything else — queues, state machine, callbacks — is the core's
// job, not the plugin's.
type Processor interface {
	// PortSpecs returns the ports to construct, in index order.
	PortSpecs() []PortSpec

	// WorkerSteps returns one worker.Step per worker thread this
	// component needs while Executing. Called once, after ports are
	// constructed, so steps may close over c.Port(i).
	WorkerSteps(c *Component) []WorkerStep
}

// WorkerStep names a worker for logging/metrics alongside its step
// function.
type WorkerStep struct {
	Name string
	Step stepFunc
}

// stepFunc matches worker.Step's signature without importing the
// worker package from this file (component.go already does, and
// re-exporting the identical function type here would just be
// indirection); defined as a distinct name because WorkerStep is part
// of the Processor-facing API while worker.Step is core-internal.
type stepFunc = func() (progressed bool, err error)
