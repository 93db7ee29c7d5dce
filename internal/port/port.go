package port

import (
	"sync"

	"github.com/go-omxil/omxilcore/internal/bufpool"
	"github.com/go-omxil/omxilcore/internal/logging"
	"github.com/go-omxil/omxilcore/internal/omxerr"
	"github.com/go-omxil/omxilcore/internal/queue"
)

// ReturnSink is the callback surface a Port needs from its owning
// component: the event callback for end-of-stream flagging, and the
// client's buffer-done callbacks. Kept as a narrow interface (rather
// than importing internal/component) to avoid a package cycle — the
// component owns and constructs ports, not the reverse.
type ReturnSink interface {
	// BufferFlag is called once per returned buffer carrying FlagEOS,
	// before the buffer-done callback.
	BufferFlag(portIndex int, desc *Descriptor)
	// EmptyDone/FillDone deliver a drained/filled buffer back to the
	// client. A returned error is logged by the return-dispatch loop and
	// processing continues; no error event is emitted for it.
	EmptyDone(desc *Descriptor) error
	FillDone(desc *Descriptor) error
}

// Port is one input or output endpoint of a component.
type Port struct {
	Index     int
	Direction Direction
	Domain    Domain

	sink ReturnSink

	mu         sync.Mutex // guards everything below except the queues themselves
	formats    FormatList
	current    Format
	bufMin     uint32
	bufAct     uint32
	bufSize    uint32
	enabled    bool
	populated  bool
	registered map[*Descriptor]struct{}

	dispatch *queue.BoundedQueue[*Descriptor]
	ret      *queue.BoundedQueue[*Descriptor]

	returnStop chan struct{}
	returnDone chan struct{}

	pendingMark    Mark
	hasPendingMark bool
}

// Mark is the payload of OMX_CommandMarkBuffer: the fields propagated
// verbatim onto the next buffer this port dispatches to its worker.
type Mark struct {
	TargetComponent string
	Data            any
}

// New constructs a port. depth is the capacity for both the dispatch
// and return queues (nominally depth ≥1; see internal/queue.New for
// why the effective floor is 2).
func New(index int, dir Direction, domain Domain, formats FormatList, bufMin, bufSize uint32, depth int, sink ReturnSink) *Port {
	p := &Port{
		Index:      index,
		Direction:  dir,
		Domain:     domain,
		sink:       sink,
		formats:    formats,
		current:    formats.Default(),
		bufMin:     bufMin,
		bufAct:     bufMin,
		bufSize:    bufSize,
		enabled:    true,
		registered: make(map[*Descriptor]struct{}),
		dispatch:   queue.New[*Descriptor](depth),
		ret:        queue.New[*Descriptor](depth),
	}
	p.startReturnDispatch()
	return p
}

// Enabled/Populated/BufferCountActual/BufferCountMin/BufferSize/Format
// are read under the port's own (non-recursive) mutex, acquired before
// the component mutex whenever both are needed.

func (p *Port) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Port) SetEnabled(v bool) {
	p.mu.Lock()
	p.enabled = v
	p.mu.Unlock()
}

func (p *Port) Populated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.populated
}

// Empty reports whether no buffers are currently registered, the
// condition Idle→Loaded waits for on every port.
func (p *Port) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.registered) == 0
}

func (p *Port) BufferCountMin() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufMin
}

func (p *Port) BufferCountActual() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufAct
}

// SetBufferCountActual implements the one client-writable field of
// OMX_PARAM_PORTDEFINITIONTYPE. Rejected below the configured minimum.
func (p *Port) SetBufferCountActual(n uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < p.bufMin {
		return omxerr.NewPortError("SetParameter", "", p.Index, omxerr.CodeBadParameter, "nBufferCountActual below nBufferCountMin")
	}
	p.bufAct = n
	p.recomputePopulatedLocked()
	return nil
}

func (p *Port) BufferSize() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bufSize
}

func (p *Port) Format() Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// FormatAt implements GetParameter(...PortFormat, nIndex): the
// nIndex-th supported format, or NoMore past the end.
func (p *Port) FormatAt(index int) (Format, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.formats.Get(index)
	if !ok {
		return Format{}, omxerr.NewPortError("GetParameter", "", p.Index, omxerr.CodeNoMore, "no more supported formats")
	}
	return f, nil
}

// SetFormat implements SetParameter on the port-format index: accepted
// only if f is (equal to) an entry already in the supported list.
func (p *Port) SetFormat(f Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.Domain {
	case DomainVideo:
		if f.Video.Compression == CompressionUnused && f.Video.Color == ColorUnused {
			return omxerr.NewPortError("SetParameter", "", p.Index, omxerr.CodeBadParameter, "compression and color both unused")
		}
	case DomainImage:
		if f.Image.Compression == CompressionUnused && f.Image.Color == ColorUnused {
			return omxerr.NewPortError("SetParameter", "", p.Index, omxerr.CodeBadParameter, "compression and color both unused")
		}
	}
	if !p.formats.Contains(f) {
		return omxerr.NewPortError("SetParameter", "", p.Index, omxerr.CodeUnsupportedSetting, "format not in supported list")
	}
	p.current = f
	return nil
}

func (p *Port) recomputePopulatedLocked() {
	p.populated = uint32(len(p.registered)) == p.bufAct
}

// register adds a descriptor to the port's registered-buffer set,
// called by both UseBuffer and AllocateBuffer.
func (p *Port) register(d *Descriptor) {
	p.mu.Lock()
	p.registered[d] = struct{}{}
	p.recomputePopulatedLocked()
	p.mu.Unlock()
}

// UseBuffer wraps caller-supplied storage in a new descriptor and adds
// it to the registered list.
func (p *Port) UseBuffer(size uint32, external []byte, appPrivate any) *Descriptor {
	h := &Header{Data: external, AllocLen: size, InputPortIndex: -1, OutputPortIndex: -1, AppPrivate: appPrivate}
	if p.Direction == DirInput {
		h.InputPortIndex = p.Index
	} else {
		h.OutputPortIndex = p.Index
	}
	d := NewDescriptor(h, p.Direction, p.Index, false, nil)
	p.register(d)
	return d
}

// AllocateBuffer allocates core-owned storage for a new descriptor via
// internal/bufpool and adds it to the registered list.
func (p *Port) AllocateBuffer(size uint32, appPrivate any) (*Descriptor, error) {
	buf, err := bufpool.Acquire(int(size))
	if err != nil {
		return nil, omxerr.WrapError("AllocateBuffer", err)
	}
	h := &Header{Data: buf.Bytes, AllocLen: size, InputPortIndex: -1, OutputPortIndex: -1, AppPrivate: appPrivate}
	if p.Direction == DirInput {
		h.InputPortIndex = p.Index
	} else {
		h.OutputPortIndex = p.Index
	}
	d := NewDescriptor(h, p.Direction, p.Index, true, buf.Release)
	p.register(d)
	return d, nil
}

// FreeBuffer removes a descriptor from the registered list, releasing
// core-owned storage (AllocateBuffer descriptors only).
func (p *Port) FreeBuffer(d *Descriptor) error {
	p.mu.Lock()
	if _, ok := p.registered[d]; !ok {
		p.mu.Unlock()
		return omxerr.NewPortError("FreeBuffer", "", p.Index, omxerr.CodeBadParameter, "buffer not registered on this port")
	}
	delete(p.registered, d)
	p.recomputePopulatedLocked()
	p.mu.Unlock()
	d.Release()
	return nil
}

// ReleaseAll frees every registered buffer, the step OMX_CommandPortDisable
// takes after flushing: the client must UseBuffer/AllocateBuffer again
// before a subsequent enable completes.
func (p *Port) ReleaseAll() {
	p.mu.Lock()
	toRelease := make([]*Descriptor, 0, len(p.registered))
	for d := range p.registered {
		toRelease = append(toRelease, d)
	}
	p.registered = make(map[*Descriptor]struct{})
	p.recomputePopulatedLocked()
	p.mu.Unlock()

	for _, d := range toRelease {
		d.Release()
	}
}

// StateGate is supplied by the component at call time (Idle,
// Executing, Pause); Port itself has no notion of component state.
type StateGate func() bool

// EmptyThisBuffer enqueues a buffer for the worker to drain. allowed
// reports whether the component's current state permits buffer flow.
func (p *Port) EmptyThisBuffer(d *Descriptor, allowed StateGate) error {
	if !allowed() {
		return omxerr.NewPortError("EmptyThisBuffer", "", p.Index, omxerr.CodeIncorrectStateOperation, "component not in a buffer-flow state")
	}
	if err := p.dispatch.Push(d); err != nil {
		return omxerr.NewPortError("EmptyThisBuffer", "", p.Index, omxerr.CodeInsufficientResources, "dispatch queue write failed")
	}
	return nil
}

// FillThisBuffer is EmptyThisBuffer's output-port counterpart.
func (p *Port) FillThisBuffer(d *Descriptor, allowed StateGate) error {
	return p.EmptyThisBuffer(d, allowed)
}

// SetPendingMark arms the mark OMX_CommandMarkBuffer stamps onto the
// next buffer this port hands to its worker.
func (p *Port) SetPendingMark(m Mark) {
	p.mu.Lock()
	p.pendingMark = m
	p.hasPendingMark = true
	p.mu.Unlock()
}

// PopBuffer is the worker-facing blocking dequeue from the dispatch
// queue. A pending mark (OMX_CommandMarkBuffer) is stamped onto the
// returned descriptor's header and cleared before returning, so it is
// applied to exactly one buffer.
func (p *Port) PopBuffer() (*Descriptor, error) {
	d, err := p.dispatch.Pop()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.hasPendingMark {
		d.Header.MarkOwner = p.pendingMark.TargetComponent
		d.Header.MarkData = p.pendingMark.Data
		p.hasPendingMark = false
	}
	p.mu.Unlock()
	return d, nil
}

// EmptyBufferDone/FillBufferDone hand a processed descriptor to the
// return queue, for the return-dispatch loop to deliver to the client.
func (p *Port) EmptyBufferDone(d *Descriptor) error {
	return p.ret.Push(d)
}

func (p *Port) FillBufferDone(d *Descriptor) error {
	return p.ret.Push(d)
}

// DispatchDepth/ReturnDepth report current occupancy, used for metrics
// sampling.
func (p *Port) DispatchDepth() int { return p.dispatch.Len() }
func (p *Port) ReturnDepth() int   { return p.ret.Len() }

func (p *Port) startReturnDispatch() {
	p.returnStop = make(chan struct{})
	p.returnDone = make(chan struct{})
	go p.returnDispatchLoop()
}

// returnDispatchLoop is the one-per-port thread: pop the return queue,
// fire the EOS event if flagged, then the client's
// Empty/FillBufferDone. A callback error is
// logged and the loop continues — it never stops delivering buffers
// because one client callback misbehaved.
func (p *Port) returnDispatchLoop() {
	defer close(p.returnDone)
	for {
		d, err := p.ret.Pop()
		if err != nil {
			return // shut down: read side interrupted
		}
		if d.Header.Flags.Has(FlagEOS) {
			p.sink.BufferFlag(p.Index, d)
		}
		var cbErr error
		if d.Direction == DirInput {
			cbErr = p.sink.EmptyDone(d)
		} else {
			cbErr = p.sink.FillDone(d)
		}
		if cbErr != nil {
			logging.Default().Errorf("port %d: return callback failed: %v", p.Index, cbErr)
		}
	}
}

// Flush plugs the push side, drains the dispatch queue (returning every
// in-flight buffer to the return queue with FilledLen reset to 0), then
// plugs the pop side as well; both stay plugged until Restart. The drain
// runs before the read side is shut because TryPop refuses to dequeue
// from a read-shut queue. Plugging the read side
// too is what wakes a worker blocked in PopBuffer with nothing queued
// (the common idle state): Shutdown(true, true) makes that Pop return
// ErrInterrupted immediately instead of waiting on a write that will
// never come, so the worker's Step loop observes request_flush at its
// next poll point instead of stalling until the handshake timeout.
// Callers are expected to have already set the relevant workers'
// request_flush flag before invoking this.
func (p *Port) Flush() {
	p.dispatch.Shutdown(false, true) // plug: subsequent pushes fail
	for {
		d, ok, _ := p.dispatch.TryPop()
		if !ok {
			break
		}
		d.ResetForFlush()
		_ = p.ret.Push(d)
	}
	p.dispatch.Shutdown(true, true) // blocked pops wake with ErrInterrupted
}

// Restart re-enables the dispatch queue after a Flush.
func (p *Port) Restart() {
	p.dispatch.AbortShutdown()
}

// Close shuts down both queues and waits for the return-dispatch
// goroutine to exit, the teardown path a component drives when a
// handle is freed.
func (p *Port) Close() {
	p.dispatch.Shutdown(true, true)
	p.ret.Shutdown(true, true)
	close(p.returnStop)
	<-p.returnDone
}
