package component

import (
	"time"

	"github.com/go-omxil/omxilcore/internal/constants"
	"github.com/go-omxil/omxilcore/internal/omxerr"
)

// dispatchLoop is the per-component background thread: pop one
// command, perform its side effect, emit exactly one completion or
// error event, repeat. Only one state transition is ever in flight
// because this loop is single-threaded.
func (c *Component) dispatchLoop() {
	defer close(c.cmdDone)
	for {
		cmd, err := c.cmdQueue.Pop()
		if err != nil {
			return // shut down
		}
		switch cmd.kind {
		case cmdStateSet:
			c.handleStateSet(State(cmd.param))
		case cmdFlush:
			c.handleFlushCommand(cmd.param)
		case cmdPortEnable:
			c.handlePortEnable(cmd.param)
		case cmdPortDisable:
			c.handlePortDisable(cmd.param)
		case cmdMarkBuffer:
			c.handleMarkBuffer(cmd.param, cmd.mark)
		}
	}
}

func (c *Component) handleStateSet(target State) {
	cur := c.State()

	switch {
	case cur == StateLoaded && target == StateIdle:
		c.waitPortsPopulated()
		c.state.Store(int32(StateIdle))

	case cur == StateIdle && target == StateLoaded:
		c.waitPortsEmptied()
		c.state.Store(int32(StateLoaded))

	case cur == StateIdle && target == StateExecuting:
		for _, p := range c.ports {
			p.Restart() // undo the plug Executing→Idle left behind
		}
		for _, w := range c.workers {
			w.Start()
		}
		c.state.Store(int32(StateExecuting))

	case cur == StateExecuting && target == StateIdle:
		c.haltAllPorts()
		for _, w := range c.workers {
			w.Stop(constants.WorkerJoinTimeout)
		}
		c.state.Store(int32(StateIdle))

	case (cur == StateExecuting && target == StatePause) ||
		(cur == StatePause && target == StateExecuting) ||
		(cur == StateIdle && target == StatePause) ||
		(cur == StatePause && target == StateIdle):
		c.state.Store(int32(target))

	case (cur == StateWaitForResources && (target == StateLoaded || target == StateIdle)) ||
		(cur == StateLoaded && target == StateWaitForResources):
		c.state.Store(int32(target))

	case target == StateInvalid:
		c.destroying.Store(true)
		c.state.Store(int32(StateInvalid))

	default:
		c.failCommand(omxerr.CodeIncorrectStateTransition)
		return
	}

	c.completeCommand(cmdStateSet, int(target))
}

// waitPortsPopulated blocks until every enabled port holds exactly
// nBufferCountActual registered buffers, or the component is torn down
// mid-wait.
func (c *Component) waitPortsPopulated() {
	for {
		if c.destroying.Load() {
			return
		}
		allDone := true
		for _, p := range c.ports {
			if p.Enabled() && !p.Populated() {
				allDone = false
				break
			}
		}
		if allDone {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

// waitPortsEmptied blocks until every port has zero registered
// buffers (the client has freed them all).
func (c *Component) waitPortsEmptied() {
	for {
		if c.destroying.Load() {
			return
		}
		allEmpty := true
		for _, p := range c.ports {
			if !p.Empty() {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
