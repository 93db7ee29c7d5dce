// Package omxil is the host side of the OpenMAX IL 1.1.2 core: the
// process-wide Init/Deinit/GetHandle/FreeHandle surface, plus the
// handle type that wraps a constructed component.
package omxil

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/logging"
	"github.com/go-omxil/omxilcore/internal/registry"
)

// Callbacks, Event and the event constants are the client-facing
// surface of internal/component re-exported under the root package,
// the same alias pattern errors.go uses for Code/Error.
type Callbacks = component.Callbacks
type Event = component.Event

const (
	EventCmdComplete        = component.EventCmdComplete
	EventError              = component.EventError
	EventBufferFlag         = component.EventBufferFlag
	EventPortSettingsChanged = component.EventPortSettingsChanged
)

// Processor is the capability interface a concrete plugin component
// implements; re-exported from internal/component so plugin authors
// never need to import an internal path.
type Processor = component.Processor
type PortSpec = component.PortSpec
type WorkerStep = component.WorkerStep

var (
	initMu    sync.Mutex
	initCount int
)

// Init is OMX_Init: reference-counted, triggers a registry load on the
// first call in the process. Matching Deinit calls unload it.
func Init() error {
	initMu.Lock()
	defer initMu.Unlock()
	initCount++
	if initCount > 1 {
		return nil
	}
	r := registry.Default()
	if err := registry.LoadRCFile(r); err != nil {
		logging.Default().Warnf("init: loading plugin rc file: %v", err)
	}
	return nil
}

// Deinit is OMX_Deinit: the matching decrement. The registry is torn
// down only when the count returns to zero.
func Deinit() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initCount == 0 {
		return NewError("OMX_Deinit", CodeBadParameter, "not initialized")
	}
	initCount--
	if initCount == 0 {
		registry.Reset()
	}
	return nil
}

// RegisterComponent adds a constructor/destructor pair under name,
// bypassing the plugin loader — the path demo components and tests use
// to register themselves directly in-process.
func RegisterComponent(name string, ctor registry.Constructor, dtor registry.Destructor) {
	registry.Default().RegisterComponent(name, ctor, dtor, "")
}

// RegisterComponentAlias/RegisterComponentRole mirror the registry methods.
func RegisterComponentAlias(name, alias string) bool {
	return registry.Default().RegisterComponentAlias(name, alias)
}

func RegisterComponentRole(name, role string) bool {
	return registry.Default().RegisterComponentRole(name, role)
}

// Handle is the object an OMX_GetHandle call returns: a thin wrapper
// around the internal component plus the metrics this package owns
// (internal/component only needs an Observer-shaped value, not the
// concrete *Metrics type).
type Handle struct {
	Name      string
	component *component.Component
	metrics   *Metrics
	destroyed atomic.Bool
}

// GetHandle is OMX_GetHandle: resolve name (canonical or alias) in the
// registry, construct a Processor via its constructor, then wrap it in
// a running Component.
func GetHandle(name string, appData any, callbacks Callbacks) (*Handle, error) {
	entry, ok := registry.Default().Lookup(name)
	if !ok {
		return nil, NewComponentError("OMX_GetHandle", name, CodeBadParameter, "no component registered under this name")
	}
	instance, err := entry.Constructor(name)
	if err != nil {
		return nil, WrapError("OMX_GetHandle", err)
	}
	proc, ok := instance.(Processor)
	if !ok {
		return nil, NewComponentError("OMX_GetHandle", name, CodeBadParameter, "constructor did not return a Processor")
	}

	role := ""
	if len(entry.Roles) > 0 {
		role = entry.Roles[0]
	}

	c := component.New(entry.Name, role, callbacks, appData, proc)
	m := NewMetrics()
	c.SetObserver(NewMetricsObserver(m))

	return &Handle{Name: entry.Name, component: c, metrics: m}, nil
}

// FreeHandle is OMX_FreeHandle: idempotent DeInit followed by teardown.
func FreeHandle(h *Handle) error {
	if h == nil {
		return NewError("OMX_FreeHandle", CodeBadParameter, "nil handle")
	}
	if !h.destroyed.CompareAndSwap(false, true) {
		return nil // idempotent
	}
	h.metrics.Stop()
	h.component.Destroy()
	return nil
}

// ComponentNameEnum is OMX_ComponentNameEnum: the index-th canonical
// name registered, or CodeNoMore past the end.
func ComponentNameEnum(index int) (string, error) {
	names := registry.Default().Names()
	if index < 0 || index >= len(names) {
		return "", NewError("OMX_ComponentNameEnum", CodeNoMore, "index past end of registry")
	}
	return names[index], nil
}

// GetRolesOfComponent is OMX_GetRolesOfComponent. bufCap is the
// caller's buffer capacity; if the role count exceeds it,
// InsufficientResources is returned with the needed count.
func GetRolesOfComponent(name string, bufCap int) ([]string, error) {
	roles, ok := registry.Default().RolesOf(name)
	if !ok {
		return nil, NewComponentError("OMX_GetRolesOfComponent", name, CodeBadParameter, "no such component")
	}
	if bufCap >= 0 && len(roles) > bufCap {
		return nil, NewComponentError("OMX_GetRolesOfComponent", name, CodeInsufficientResources, fmt.Sprintf("need %d entries", len(roles)))
	}
	return roles, nil
}

// GetComponentsOfRole is OMX_GetComponentsOfRole.
func GetComponentsOfRole(role string, bufCap int) ([]string, error) {
	names := registry.Default().ComponentsOfRole(role)
	if bufCap >= 0 && len(names) > bufCap {
		return nil, NewError("OMX_GetComponentsOfRole", CodeInsufficientResources, fmt.Sprintf("need %d entries", len(names)))
	}
	return names, nil
}

// SendCommand dispatches one of the async state/flush/port commands.
// flushPort (the target port of a flush/enable/disable) is ignored for
// a state-set command.
func (h *Handle) SendCommand(state int, flushPort int, op string) error {
	switch op {
	case "StateSet":
		return h.component.RequestStateSet(component.State(state))
	case "Flush":
		return h.component.RequestFlush(flushPort)
	case "PortEnable":
		return h.component.RequestPortEnable(flushPort)
	case "PortDisable":
		return h.component.RequestPortDisable(flushPort)
	default:
		return NewComponentError("SendCommand", h.Name, CodeNotImplemented, "unknown command "+op)
	}
}

// MarkBuffer is OMX_CommandMarkBuffer: targetComponent/data are
// stamped onto the next buffer the named port dispatches to its
// worker.
func (h *Handle) MarkBuffer(portIndex int, targetComponent string, data any) error {
	return h.component.RequestMarkBuffer(portIndex, targetComponent, data)
}

// GetState is the one non-blocking state query the client may call at
// any time.
func (h *Handle) GetState() component.State {
	return h.component.State()
}

// Metrics returns the handle's buffer-flow metrics.
func (h *Handle) Metrics() *Metrics {
	return h.metrics
}

// MetricsSnapshot returns a point-in-time snapshot.
func (h *Handle) MetricsSnapshot() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// Component exposes the underlying component for buffer-flow and port
// operations that the thin ABI methods above don't cover one-to-one.
func (h *Handle) Component() *component.Component {
	return h.component
}
