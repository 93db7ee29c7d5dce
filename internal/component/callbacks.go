package component

import (
	"time"

	"github.com/go-omxil/omxilcore/internal/logging"
	"github.com/go-omxil/omxilcore/internal/port"
)

// emitEvent invokes the client's event callback. Never called while c.mu
// is held.
func (c *Component) emitEvent(event Event, data1, data2 uint32, eventData any) {
	if c.callbacks.EventHandler == nil {
		return
	}
	c.callbacks.EventHandler(c, event, data1, data2, eventData)
}

// completeCommand emits exactly one CmdComplete for an async command,
// data1/data2 matching the OMX_EventCmdComplete convention (command,
// then its parameter).
func (c *Component) completeCommand(kind commandKind, param int) {
	c.emitEvent(EventCmdComplete, uint32(kind), uint32(param), nil)
}

// failCommand emits an Error event carrying the failure reason (an
// omxerr.Code or a plain string) as eventData, with data1 and data2 left
// at 0; the path for reporting asynchronous command failures. Logged as well
// as surfaced to the client, since the dispatcher goroutine is the one
// place a failure like this has no other observer once the event has
// been delivered.
func (c *Component) failCommand(code any) {
	logDispatchError(c.Name, code)
	c.emitEvent(EventError, 0, 0, code)
}

// returnSink adapts *Component to port.ReturnSink. Defined as a
// distinct named type over Component's identical underlying struct so
// (*returnSink)(c) is a zero-cost pointer conversion — the same
// "wrap a pointer you already own in a narrower interface" pattern the
// teacher's queue package uses to hand a *Runner to code that only
// needs its Logger-shaped methods.
type returnSink Component

// BufferFlag implements port.ReturnSink.
func (rs *returnSink) BufferFlag(portIndex int, d *port.Descriptor) {
	c := (*Component)(rs)
	c.emitEvent(EventBufferFlag, uint32(portIndex), 0, nil)
}

// EmptyDone implements port.ReturnSink.
func (rs *returnSink) EmptyDone(d *port.Descriptor) error {
	c := (*Component)(rs)
	start := time.Now()
	if c.callbacks.EmptyBufferDone != nil {
		c.callbacks.EmptyBufferDone(c, d.Header.AppPrivate, d.Header)
	}
	c.observer.ObserveEmpty(uint64(d.Header.FilledLen), uint64(time.Since(start)), true)
	return nil
}

// FillDone implements port.ReturnSink.
func (rs *returnSink) FillDone(d *port.Descriptor) error {
	c := (*Component)(rs)
	start := time.Now()
	if c.callbacks.FillBufferDone != nil {
		c.callbacks.FillBufferDone(c, d.Header.AppPrivate, d.Header)
	}
	c.observer.ObserveFill(uint64(d.Header.FilledLen), uint64(time.Since(start)), true)
	return nil
}

var _ port.ReturnSink = (*returnSink)(nil)

// logDispatchError logs a dispatcher-side command failure before it is
// surfaced to the client as an OMX_EventError; reason is typically an
// omxerr.Code or a plain string, whichever failCommand was given.
func logDispatchError(componentName string, reason any) {
	logging.Default().Errorf("component %s: dispatcher command failed: %v", componentName, reason)
}
