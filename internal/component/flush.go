package component

import (
	"time"

	"github.com/go-omxil/omxilcore/internal/constants"
	"github.com/go-omxil/omxilcore/internal/port"
)

// handleFlushCommand implements OMX_CommandFlush: drain the named
// port (or every port, for allPorts), restart its workers, and emit
// CmdComplete. Scoped identically to the Executing→Idle drain, just
// limited to one port.
func (c *Component) handleFlushCommand(portIndex int) {
	start := time.Now()
	var ok bool
	if portIndex == allPorts {
		ok = c.flushAllPorts()
	} else {
		p := c.Port(portIndex)
		if p == nil {
			c.failCommand("bad port index")
			return
		}
		ok = c.flushOnePort(p)
	}
	c.observer.ObserveFlush(uint64(time.Since(start)), ok)
	c.completeCommand(cmdFlush, portIndex)
}

// flushAllPorts runs the flush handshake against every port,
// restarting workers afterward so Executing resumes normally.
//
// Order matters here and follows spec.md §4.5 literally: request_flush
// is set first, then the ports are plugged+drained (Port.Flush shuts
// down both the push and pop side of the dispatch queue), and only
// then do we wait for flush_done. A worker idle in PopBuffer with
// nothing queued — the common case — never reaches its request_flush
// poll point until the plugged queue wakes it with ErrInterrupted;
// waiting for flush_done before plugging the queue would wait on a
// worker that has no way to wake up.
func (c *Component) flushAllPorts() bool {
	ok := true
	for _, w := range c.workers {
		w.RequestFlush()
	}
	for _, p := range c.ports {
		p.Flush()
	}
	for _, w := range c.workers {
		if !w.WaitFlushDone(constants.FlushHandshakeTimeout) {
			ok = false
		}
	}
	for _, p := range c.ports {
		p.Restart()
	}
	for _, w := range c.workers {
		w.RequestRestart()
	}
	for _, w := range c.workers {
		if !w.WaitRestartDone(constants.FlushHandshakeTimeout) {
			ok = false
		}
	}
	return ok
}

// haltAllPorts runs the flush half of the handshake only (request,
// plug+drain, wait for flush_done) and leaves every port plugged and
// every worker parked in its flush wait — used by the Executing→Idle
// transition, which joins the workers next rather than resuming them.
// Workers stay parked (not restarted) because that transition Stop()s
// them right after this returns; restarting the dispatch queue just to
// immediately Stop() the worker would reintroduce the same blocked-Pop
// stall this handshake exists to avoid.
func (c *Component) haltAllPorts() bool {
	start := time.Now()
	ok := true
	for _, w := range c.workers {
		w.RequestFlush()
	}
	for _, p := range c.ports {
		p.Flush()
	}
	for _, w := range c.workers {
		if !w.WaitFlushDone(constants.FlushHandshakeTimeout) {
			ok = false
		}
	}
	c.observer.ObserveFlush(uint64(time.Since(start)), ok)
	return ok
}

// flushOnePort runs the same handshake scoped to a single port. Since
// workers in this implementation are not bound 1:1 to a port (a filter
// component's single worker drains one port and fills another), a
// single-port flush still has to pause every worker to guarantee no
// worker is mid-iteration against the targeted port when it drains —
// the alternative (per-port worker sets) is left to Processor
// implementations that want finer-grained flush.
func (c *Component) flushOnePort(p interface{ Flush(); Restart() }) bool {
	ok := true
	for _, w := range c.workers {
		w.RequestFlush()
	}
	p.Flush()
	for _, w := range c.workers {
		if !w.WaitFlushDone(constants.FlushHandshakeTimeout) {
			ok = false
		}
	}
	p.Restart()
	for _, w := range c.workers {
		w.RequestRestart()
	}
	for _, w := range c.workers {
		if !w.WaitRestartDone(constants.FlushHandshakeTimeout) {
			ok = false
		}
	}
	return ok
}

// handlePortEnable implements OMX_CommandPortEnable: mark the port
// enabled and wait for it to populate before completing (the client
// has to UseBuffer/AllocateBuffer again first).
func (c *Component) handlePortEnable(portIndex int) {
	p := c.Port(portIndex)
	if p == nil {
		c.failCommand("bad port index")
		return
	}
	p.SetEnabled(true)
	for !p.Populated() && !c.destroying.Load() {
		time.Sleep(time.Millisecond)
	}
	c.completeCommand(cmdPortEnable, portIndex)
}

// handlePortDisable implements OMX_CommandPortDisable: flush the port,
// then release its registered buffer list — the client must
// UseBuffer/AllocateBuffer again before a subsequent enable completes.
func (c *Component) handlePortDisable(portIndex int) {
	p := c.Port(portIndex)
	if p == nil {
		c.failCommand("bad port index")
		return
	}
	start := time.Now()
	ok := c.flushOnePort(p)
	c.observer.ObserveFlush(uint64(time.Since(start)), ok)
	p.ReleaseAll()
	p.SetEnabled(false)
	c.completeCommand(cmdPortDisable, portIndex)
}

// handleMarkBuffer implements OMX_CommandMarkBuffer: stash the mark on
// the named port so its next dispatched buffer carries it.
func (c *Component) handleMarkBuffer(portIndex int, mark port.Mark) {
	p := c.Port(portIndex)
	if p == nil {
		c.failCommand("bad port index")
		return
	}
	p.SetPendingMark(mark)
	c.completeCommand(cmdMarkBuffer, portIndex)
}
