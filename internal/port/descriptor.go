package port

// BufferFlags mirrors the OMX_BUFFERFLAG bits the core itself acts on.
type BufferFlags uint32

const (
	FlagEOS BufferFlags = 1 << iota
	FlagStartTime
	FlagDecodeOnly
	FlagSyncFrame
)

// Has reports whether every bit in want is set.
func (f BufferFlags) Has(want BufferFlags) bool { return f&want == want }

// Header is the Go analogue of OMX_BUFFERHEADERTYPE: the struct a
// client and a component exchange a pointer to. nSize/nVersion are
// validated once at the ABI boundary (see the root package's header
// validation helper) and are not repeated here.
type Header struct {
	Data       []byte
	AllocLen   uint32
	Offset     uint32
	FilledLen  uint32
	Flags      BufferFlags
	Timestamp  int64
	AppPrivate any
	MarkData   any    // propagated verbatim; never interpreted by the core
	MarkOwner  string // component name that set MarkData, "" if none

	InputPortIndex  int
	OutputPortIndex int
}

// Descriptor is the handle a worker receives from pop_buffer: a view
// over a Header with a cursor tracking consumption/production
// progress, plus the bookkeeping the owning port needs to reclaim or
// return it. It is never copied by value past construction — callers
// pass *Descriptor.
type Descriptor struct {
	Header    *Header
	Direction Direction
	PortIndex int

	// CoreAllocated is true when Header.Data came from
	// internal/bufpool (OMX_AllocateBuffer) rather than the client
	// (OMX_UseBuffer); FreeBuffer only releases pool storage in the
	// former case.
	CoreAllocated bool
	release       func()

	cursor uint32
}

// NewDescriptor wraps a caller- or core-provided Header for the given
// port index/direction, with the cursor positioned at the start of
// whatever content the header currently carries.
func NewDescriptor(h *Header, dir Direction, portIndex int, coreAllocated bool, release func()) *Descriptor {
	d := &Descriptor{Header: h, Direction: dir, PortIndex: portIndex, CoreAllocated: coreAllocated, release: release}
	d.resetCursor()
	return d
}

func (d *Descriptor) resetCursor() {
	if d.Direction == DirInput {
		d.cursor = d.Header.Offset
	} else {
		d.cursor = d.Header.Offset + d.Header.FilledLen
	}
}

// Release returns core-allocated storage to its pool. A no-op for
// client-supplied (UseBuffer) descriptors.
func (d *Descriptor) Release() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

// Index returns the cursor: for an input buffer, Offset+consumed; for
// an output buffer, Offset+FilledLen (the next write position).
func (d *Descriptor) Index() uint32 {
	return d.cursor
}

// Remain returns how many bytes are left to read (input direction) or
// free to write (output direction).
func (d *Descriptor) Remain() uint32 {
	if d.Direction == DirInput {
		return d.Header.FilledLen
	}
	return d.Header.AllocLen - (d.Header.Offset + d.Header.FilledLen)
}

// Skip advances an input buffer's cursor by min(n, Remain()), shrinking
// FilledLen by the same amount. No-op (returns 0) on an output buffer.
func (d *Descriptor) Skip(n uint32) uint32 {
	if d.Direction != DirInput {
		return 0
	}
	adv := n
	if r := d.Remain(); adv > r {
		adv = r
	}
	d.cursor += adv
	d.Header.FilledLen -= adv
	return adv
}

// ReadArray copies min(len(dst), Remain()) bytes from the buffer's
// current cursor into dst and advances. Rejected with 0 on an output
// buffer: reading an output-direction buffer is a contract error, not
// a data error.
func (d *Descriptor) ReadArray(dst []byte) uint32 {
	if d.Direction != DirInput {
		return 0
	}
	n := uint32(len(dst))
	if r := d.Remain(); n > r {
		n = r
	}
	copy(dst[:n], d.Header.Data[d.cursor:d.cursor+n])
	d.cursor += n
	d.Header.FilledLen -= n
	return n
}

// WriteArray copies min(len(src), Remain()) bytes from src into the
// buffer at the current cursor and grows FilledLen. Rejected with 0 on
// an input buffer.
func (d *Descriptor) WriteArray(src []byte) uint32 {
	if d.Direction != DirOutput {
		return 0
	}
	n := uint32(len(src))
	if r := d.Remain(); n > r {
		n = r
	}
	copy(d.Header.Data[d.cursor:d.cursor+n], src[:n])
	d.cursor += n
	d.Header.FilledLen += n
	return n
}

// ResetForFlush zeroes FilledLen and rewinds the cursor, the shape a
// descriptor takes when a worker abandons it mid-flush: returned to
// the client with nFilledLen = 0.
func (d *Descriptor) ResetForFlush() {
	d.Header.FilledLen = 0
	d.resetCursor()
}
