// Package worker implements the cooperative thread abstraction each
// component starts on Idle→Executing and joins on Executing→Idle: a
// poll loop with atomic flush/restart flags and handshake waits, one
// goroutine per unit of work, started/stopped around a state
// transition, pinned to a CPU when the caller asks.
package worker

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/go-omxil/omxilcore/internal/logging"
)

// Step is the per-iteration unit of work a Worker drives. It returns
// false when there is nothing to do right now (the worker should poll
// again without spinning too hot), and an error only for conditions
// the component should treat as fatal to this worker.
type Step func() (progressed bool, err error)

// Worker owns a goroutine and five atomic handshake flags: running,
// request_flush, flush_done, request_restart, restart_done.
type Worker struct {
	name string
	step Step

	running        atomic.Bool
	requestFlush   atomic.Bool
	flushDone      atomic.Bool
	requestRestart atomic.Bool
	restartDone    atomic.Bool
	broken         atomic.Bool

	cpu      int // -1 means no affinity pinning
	stop     chan struct{}
	done     chan struct{}
	stopOnce atomic.Bool
}

// New constructs a worker that is not yet running. cpu < 0 means "no
// affinity pinning" — the common case outside of dedicated
// low-latency deployments.
func New(name string, step Step, cpu int) *Worker {
	return &Worker{name: name, step: step, cpu: cpu}
}

// Start launches the poll goroutine. May be called again once Stop has
// joined the previous goroutine (each Idle→Executing transition does).
// Clears the flush/restart handshake flags first: a worker halted by
// Executing→Idle is joined while still parked mid-flush (see
// Component.haltAllPorts), so a later Idle→Executing Start must not
// inherit a stale requestFlush/flushDone pair from the transition that
// stopped it.
func (w *Worker) Start() {
	w.requestFlush.Store(false)
	w.flushDone.Store(false)
	w.requestRestart.Store(false)
	w.restartDone.Store(false)
	w.broken.Store(false)
	w.stopOnce.Store(false)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.running.Store(true)
	go w.loop()
}

// Running reports whether the worker's goroutine is active.
func (w *Worker) Running() bool { return w.running.Load() }

func (w *Worker) loop() {
	defer close(w.done)
	defer w.running.Store(false)

	if w.cpu >= 0 {
		pinToCPU(w.name, w.cpu)
	}

	idleBackoff := time.Microsecond
	const maxBackoff = 2 * time.Millisecond

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		if w.requestFlush.Load() {
			w.handleFlush()
			continue
		}

		progressed, err := w.step()
		if err != nil {
			logging.Default().Errorf("worker %s: step failed: %v", w.name, err)
			idleBackoff = backoffUp(idleBackoff, maxBackoff)
			time.Sleep(idleBackoff)
			continue
		}
		if progressed {
			idleBackoff = time.Microsecond
			continue
		}
		idleBackoff = backoffUp(idleBackoff, maxBackoff)
		time.Sleep(idleBackoff)
	}
}

func backoffUp(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

// handleFlush implements steps 3 and 5 of the flush handshake:
// observe request_flush at a poll point (here, that
// is simply "not mid-Step", since Step itself pops and fully disposes
// of one buffer before returning), set flush_done, then block until
// request_restart, clear it, and set restart_done.
func (w *Worker) handleFlush() {
	w.flushDone.Store(true)
	for !w.requestRestart.Load() {
		select {
		case <-w.stop:
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
	w.requestRestart.Store(false)
	w.requestFlush.Store(false)
	w.flushDone.Store(false)
	w.restartDone.Store(true)
}

// RequestFlush sets request_flush; the caller then polls WaitFlushDone.
func (w *Worker) RequestFlush() { w.requestFlush.Store(true) }

// WaitFlushDone blocks (bounded by timeout) until the worker has
// acknowledged a flush request.
func (w *Worker) WaitFlushDone(timeout time.Duration) bool {
	return pollUntil(func() bool { return w.flushDone.Load() }, timeout)
}

// RequestRestart clears the flush wait, resuming normal polling.
func (w *Worker) RequestRestart() {
	w.restartDone.Store(false)
	w.requestRestart.Store(true)
}

// WaitRestartDone blocks (bounded by timeout) until the worker has
// resumed.
func (w *Worker) WaitRestartDone(timeout time.Duration) bool {
	return pollUntil(func() bool { return w.restartDone.Load() }, timeout)
}

func pollUntil(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// Broken marks the worker as running under a component that is being
// destroyed; Step implementations may check this to short-circuit.
func (w *Worker) Broken() bool { return w.broken.Load() }

// Stop signals the goroutine to exit and waits (bounded by timeout)
// for it to do so. Safe to call more than once.
func (w *Worker) Stop(timeout time.Duration) bool {
	if w.stop == nil || !w.stopOnce.CompareAndSwap(false, true) {
		if w.done == nil {
			return true
		}
		select {
		case <-w.done:
			return true
		case <-time.After(timeout):
			return false
		}
	}
	w.broken.Store(true)
	close(w.stop)
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// pinToCPU best-effort-pins the calling goroutine's backing OS thread
// to a single CPU via sched_setaffinity. Failures are logged, not
// fatal: affinity is a scheduling hint, not a correctness requirement.
func pinToCPU(name string, cpu int) {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		logging.Default().Warnf("worker %s: sched_setaffinity(cpu=%d) failed: %v", name, cpu, err)
	}
}
