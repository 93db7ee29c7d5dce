// Package constants holds the library-wide defaults and version stamps
// shared by the root package and the internal component/port/registry
// packages.
package constants

import "time"

// Library version triple stamped into every OMX_VERSIONTYPE exchanged
// with a client. A struct whose major/minor does not match is rejected
// with VersionMismatch.
const (
	LibVersionMajor   = 1
	LibVersionMinor   = 1
	LibVersionRevision = 2
	LibVersionStep    = 0
)

// Specification version this core implements (OpenMAX IL 1.1.2).
const (
	SpecVersionMajor    = 1
	SpecVersionMinor    = 1
	SpecVersionRevision = 2
	SpecVersionStep     = 0
)

// Default configuration constants.
const (
	// DefaultPortQueueDepth is the default depth of a port's dispatch
	// and return queues.
	DefaultPortQueueDepth = 16

	// DefaultBufferCountMin is the default minimum buffer count for a
	// freshly constructed port, absent component-specific overrides.
	DefaultBufferCountMin = 1

	// DefaultBufferCountActual mirrors DefaultBufferCountMin until the
	// client negotiates a different actual count.
	DefaultBufferCountActual = 1

	// CommandQueueDepth is the depth of a component's command mailbox.
	// The bounded-queue implementation backing it (lfq.SPSC) requires a
	// minimum capacity of 2, so the nominal depth-1 mailbox rounds up.
	CommandQueueDepth = 2
)

// Timing constants governing how long the core waits on cooperative
// worker handshakes and command completion before treating a stall as
// a bug rather than scheduling jitter. These are conventional bounds,
// not hard cancellation deadlines.
const (
	// WorkerJoinTimeout bounds how long component teardown waits for a
	// worker to observe cancellation and exit.
	WorkerJoinTimeout = 30 * time.Second

	// FlushHandshakeTimeout bounds how long a flush waits for every
	// affected worker to report flush_done (and, after restart,
	// restart_done) before the core gives up waiting. A timeout is
	// reported only as a failed flush to the metrics observer; the
	// command still completes with CmdComplete and no error event.
	FlushHandshakeTimeout = 30 * time.Second
)
