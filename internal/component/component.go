// Package component implements the object behind every OMX handle: the
// state machine, the port/worker aggregate, and the command dispatcher
// that drives transitions asynchronously.
package component

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-omxil/omxilcore/internal/constants"
	"github.com/go-omxil/omxilcore/internal/omxerr"
	"github.com/go-omxil/omxilcore/internal/port"
	"github.com/go-omxil/omxilcore/internal/queue"
	"github.com/go-omxil/omxilcore/internal/worker"
)

// Event is the OMX_EVENTTYPE subset the core emits.
type Event int

const (
	EventCmdComplete Event = iota
	EventError
	EventBufferFlag
	EventPortSettingsChanged
)

// Callbacks is the triple a client supplies to OMX_GetHandle.
type Callbacks struct {
	EventHandler    func(c *Component, event Event, data1, data2 uint32, eventData any)
	EmptyBufferDone func(c *Component, appData any, header *port.Header)
	FillBufferDone  func(c *Component, appData any, header *port.Header)
}

// Observer receives buffer-flow measurements. Its method set matches
// the root package's *MetricsObserver/NoOpObserver exactly, so either
// satisfies this interface without the root package being imported
// here — accepting the capability, not the concrete type, is what
// lets the dependency point only one way (root → component).
type Observer interface {
	ObserveEmpty(bytes, latencyNs uint64, success bool)
	ObserveFill(bytes, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveQueueDepth(depth uint32)
}

type noOpObserver struct{}

func (noOpObserver) ObserveEmpty(uint64, uint64, bool) {}
func (noOpObserver) ObserveFill(uint64, uint64, bool)  {}
func (noOpObserver) ObserveFlush(uint64, bool)         {}
func (noOpObserver) ObserveQueueDepth(uint32)          {}

// commandKind is the OMX_COMMANDTYPE subset the dispatcher services.
type commandKind int

const (
	cmdStateSet commandKind = iota
	cmdFlush
	cmdPortEnable
	cmdPortDisable
	cmdMarkBuffer
)

type cmdMsg struct {
	kind  commandKind
	param int // target state, or OMX_ALL/port index
	mark  port.Mark
}

// allPorts is the OMX_ALL sentinel for flush/enable/disable commands.
const allPorts = -1

// Component aggregates ports and workers, runs the state machine, and
// is the object an opaque handle resolves to.
type Component struct {
	Name string
	Role string

	state atomic.Int32 // State, read without the mutex (see DESIGN.md: "state variable" open question)

	mu        sync.Mutex // protects ports slice mutation, workers slice, callbacks wiring
	callbacks Callbacks
	appData   any
	observer  Observer

	ports   []*port.Port
	workers []*worker.Worker
	proc    Processor

	cmdQueue *queue.BoundedQueue[cmdMsg]
	cmdStop  chan struct{}
	cmdDone  chan struct{}

	destroying atomic.Bool
}

// New constructs a Component in StateLoaded with its ports built from
// proc.PortSpecs(). Workers are constructed but not started — they
// start on the Idle→Executing transition.
func New(name, role string, callbacks Callbacks, appData any, proc Processor) *Component {
	c := &Component{
		Name:      name,
		Role:      role,
		callbacks: callbacks,
		appData:   appData,
		observer:  noOpObserver{},
		proc:      proc,
		cmdQueue:  queue.New[cmdMsg](constants.CommandQueueDepth),
	}
	c.state.Store(int32(StateLoaded))

	for i, spec := range proc.PortSpecs() {
		p := port.New(i, spec.Direction, spec.Domain, spec.Formats, spec.BufferCountMin, spec.BufferSize, constants.DefaultPortQueueDepth, (*returnSink)(c))
		c.ports = append(c.ports, p)
	}
	for _, ws := range proc.WorkerSteps(c) {
		c.workers = append(c.workers, worker.New(ws.Name, worker.Step(ws.Step), -1))
	}

	c.cmdStop = make(chan struct{})
	c.cmdDone = make(chan struct{})
	go c.dispatchLoop()

	return c
}

// SetObserver installs a metrics observer; nil restores the no-op one.
func (c *Component) SetObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o == nil {
		o = noOpObserver{}
	}
	c.observer = o
}

// State returns the current state without taking the component mutex,
// so GetState never blocks behind a command in flight — the one
// client-visible query that must stay non-blocking.
func (c *Component) State() State {
	return State(c.state.Load())
}

// Port returns the port at the given index, or nil if out of range.
func (c *Component) Port(index int) *port.Port {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.ports) {
		return nil
	}
	return c.ports[index]
}

// NumPorts returns the number of ports this component was constructed with.
func (c *Component) NumPorts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ports)
}

// stateGate is passed to Port.EmptyThisBuffer/FillThisBuffer: buffer
// flow is permitted in Idle, Executing, and Pause.
func (c *Component) stateGate() bool {
	switch c.State() {
	case StateIdle, StateExecuting, StatePause:
		return true
	default:
		return false
	}
}

// EmptyThisBuffer/FillThisBuffer validate the port index and state,
// hand off to the port, then sample the dispatch queue depth the
// buffer just landed in for the Observer's queue-depth gauge.
func (c *Component) EmptyThisBuffer(portIndex int, d *port.Descriptor) error {
	p := c.Port(portIndex)
	if p == nil {
		return omxerr.NewPortError("EmptyThisBuffer", c.Name, portIndex, omxerr.CodeBadPortIndex, "no such port")
	}
	err := p.EmptyThisBuffer(d, c.stateGate)
	if err == nil {
		c.observer.ObserveQueueDepth(uint32(p.DispatchDepth()))
	}
	return err
}

func (c *Component) FillThisBuffer(portIndex int, d *port.Descriptor) error {
	p := c.Port(portIndex)
	if p == nil {
		return omxerr.NewPortError("FillThisBuffer", c.Name, portIndex, omxerr.CodeBadPortIndex, "no such port")
	}
	err := p.FillThisBuffer(d, c.stateGate)
	if err == nil {
		c.observer.ObserveQueueDepth(uint32(p.DispatchDepth()))
	}
	return err
}

// SendCommand enqueues an async state/flush/port command and returns
// immediately. The queue write itself may block briefly if a previous
// command is still being accepted (the command queue's own
// write_fully suspension point).
func (c *Component) sendCommand(kind commandKind, param int) error {
	if err := c.cmdQueue.Push(cmdMsg{kind: kind, param: param}); err != nil {
		return omxerr.NewComponentError("SendCommand", c.Name, omxerr.CodeInsufficientResources, "command queue write failed")
	}
	return nil
}

// RequestMarkBuffer is OMX_CommandMarkBuffer: the mark fields are
// stamped onto the next buffer the named port dispatches to its
// worker.
func (c *Component) RequestMarkBuffer(portIndex int, targetComponent string, markData any) error {
	if err := c.cmdQueue.Push(cmdMsg{kind: cmdMarkBuffer, param: portIndex, mark: port.Mark{TargetComponent: targetComponent, Data: markData}}); err != nil {
		return omxerr.NewComponentError("SendCommand", c.Name, omxerr.CodeInsufficientResources, "command queue write failed")
	}
	return nil
}

// RequestStateSet is OMX_CommandStateSet.
func (c *Component) RequestStateSet(target State) error {
	cur := c.State()
	if cur == target {
		return omxerr.NewComponentError("SendCommand", c.Name, omxerr.CodeSameState, "already in requested state")
	}
	if !Allowed(cur, target) {
		return omxerr.NewComponentError("SendCommand", c.Name, omxerr.CodeIncorrectStateTransition, "transition not permitted")
	}
	return c.sendCommand(cmdStateSet, int(target))
}

// RequestFlush is OMX_CommandFlush; portIndex may be allPorts.
func (c *Component) RequestFlush(portIndex int) error {
	return c.sendCommand(cmdFlush, portIndex)
}

// RequestPortEnable/RequestPortDisable are OMX_CommandPortEnable/Disable.
func (c *Component) RequestPortEnable(portIndex int) error {
	return c.sendCommand(cmdPortEnable, portIndex)
}

func (c *Component) RequestPortDisable(portIndex int) error {
	return c.sendCommand(cmdPortDisable, portIndex)
}

// Destroy tears the component down: marks it broken, shuts down every
// queue and worker, waits (bounded) for everything to join. Idempotent.
func (c *Component) Destroy() {
	if !c.destroying.CompareAndSwap(false, true) {
		return
	}
	c.cmdQueue.Shutdown(true, true)
	close(c.cmdStop)
	<-c.cmdDone

	for _, w := range c.workers {
		w.Stop(constants.WorkerJoinTimeout)
	}
	for _, p := range c.ports {
		p.Close()
	}
}
