package omxil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-omxil/omxilcore/component/emptyentry"
	"github.com/go-omxil/omxilcore/component/filtercopy"
	"github.com/go-omxil/omxilcore/component/readerbinary"
	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/port"
)

// TestInitDeinitReferenceCounted checks that repeated Init/Deinit
// pairs each return OK and leave the registry reusable afterward.
func TestInitDeinitReferenceCounted(t *testing.T) {
	for i := 0; i < 10; i++ {
		require.NoError(t, Init())
		require.NoError(t, Deinit())
	}
}

func TestDeinitWithoutInitFails(t *testing.T) {
	err := Deinit()
	assert.Error(t, err)
}

func registerFixtures(t *testing.T) {
	t.Helper()
	RegisterComponent("OMX.MF.audio_reader.binary", func(name string) (any, error) {
		return readerbinary.NewAudio([]byte("hello world"), 16), nil
	}, func(any) {})
	RegisterComponentAlias("OMX.MF.audio_reader.binary", "OMX.MF.audio_reader.binary.alias")
	RegisterComponentRole("OMX.MF.audio_reader.binary", readerbinary.RoleAudio)

	RegisterComponent("OMX.MF.video_reader.binary", func(name string) (any, error) {
		return readerbinary.NewVideo(nil, 16), nil
	}, func(any) {})
	RegisterComponentRole("OMX.MF.video_reader.binary", readerbinary.RoleVideo)

	RegisterComponent("OMX.MF.filter.copy", func(name string) (any, error) {
		return filtercopy.New(64), nil
	}, func(any) {})
	RegisterComponentRole("OMX.MF.filter.copy", filtercopy.Role)

	RegisterComponent("OMX.MF.empty.entry", func(name string) (any, error) {
		return emptyentry.New(), nil
	}, func(any) {})
	RegisterComponentRole("OMX.MF.empty.entry", emptyentry.Role)
}

// TestGetHandleAndVersion checks that GetHandle succeeds, the
// library's version stamp is 1.1.2, and FreeHandle is clean.
func TestGetHandleAndVersion(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	h, err := GetHandle("OMX.MF.video_reader.binary", nil, Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), LibVersion.Major)
	assert.Equal(t, uint8(1), LibVersion.Minor)
	require.NoError(t, FreeHandle(h))
}

// TestGetHandleViaAlias resolves a component through its registered
// alias: lookup succeeds on the canonical name or any alias.
func TestGetHandleViaAlias(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	h, err := GetHandle("OMX.MF.audio_reader.binary.alias", nil, Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, "OMX.MF.audio_reader.binary", h.Name)
	require.NoError(t, FreeHandle(h))
}

// TestStateWalkWithoutBuffersStalls checks that without any buffers
// registered, the Loaded->Idle transition for a component with a real
// port must not complete.
func TestStateWalkWithoutBuffersStalls(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	h, err := GetHandle("OMX.MF.video_reader.binary", nil, Callbacks{})
	require.NoError(t, err)
	defer FreeHandle(h)

	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	time.Sleep(50 * time.Millisecond)
	assert.NotEqual(t, 3, int(h.GetState()), "must not reach Idle without a populated port")
}

// TestEmptyEntryStateWalk checks that on a port-less component, Idle
// completes immediately and Loaded is reachable again.
func TestEmptyEntryStateWalk(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	h, err := GetHandle("OMX.MF.empty.entry", nil, Callbacks{})
	require.NoError(t, err)
	defer FreeHandle(h)

	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, h.SendCommand(1, 0, "StateSet")) // StateLoaded
	require.Eventually(t, func() bool { return int(h.GetState()) == 1 }, time.Second, time.Millisecond)
}

// TestGetRolesOfComponent checks role lookup by component name.
func TestGetRolesOfComponent(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	roles, err := GetRolesOfComponent("OMX.MF.audio_reader.binary", 128)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "audio_reader.binary", roles[0])
}

// TestGetComponentsOfRole checks component lookup by role.
func TestGetComponentsOfRole(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	names, err := GetComponentsOfRole("video_reader.binary", 128)
	require.NoError(t, err)
	assert.Contains(t, names, "OMX.MF.video_reader.binary")
}

// TestFilterCopyEmptyAndFillCycle drives the filter.copy demo
// component through a full empty/fill cycle, end to end via the
// public ABI.
func TestFilterCopyEmptyAndFillCycle(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	var emptied, filled int
	h, err := GetHandle("OMX.MF.filter.copy", nil, Callbacks{
		EmptyBufferDone: func(c *component.Component, appData any, header *port.Header) { emptied++ },
		FillBufferDone:  func(c *component.Component, appData any, header *port.Header) { filled++ },
	})
	require.NoError(t, err)
	defer FreeHandle(h)

	c := h.Component()
	c.Port(0).UseBuffer(64, make([]byte, 64), nil)
	c.Port(1).UseBuffer(64, make([]byte, 64), nil)
	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, h.SendCommand(4, 0, "StateSet")) // StateExecuting
	require.Eventually(t, func() bool { return int(h.GetState()) == 4 }, time.Second, time.Millisecond)

	in := &port.Header{Data: []byte("0123456789abcdef"), AllocLen: 64, FilledLen: 16}
	out := &port.Header{Data: make([]byte, 64), AllocLen: 64}
	inDesc := port.NewDescriptor(in, port.DirInput, 0, false, nil)
	outDesc := port.NewDescriptor(out, port.DirOutput, 1, false, nil)

	require.NoError(t, c.EmptyThisBuffer(0, inDesc))
	require.NoError(t, c.FillThisBuffer(1, outDesc))

	require.Eventually(t, func() bool { return emptied == 1 && filled == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "0123456789abcdef", string(out.Data[:16]))
}

// TestFilterCopy100BufferCycle drives 100 buffers through a full
// Empty+Fill cycle, one at a time, the multi-buffer shape of an E4/E5
// style stress run rather than the single-buffer smoke test above.
func TestFilterCopy100BufferCycle(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	var emptied, filled int
	h, err := GetHandle("OMX.MF.filter.copy", nil, Callbacks{
		EmptyBufferDone: func(c *component.Component, appData any, header *port.Header) { emptied++ },
		FillBufferDone:  func(c *component.Component, appData any, header *port.Header) { filled++ },
	})
	require.NoError(t, err)
	defer FreeHandle(h)

	c := h.Component()
	c.Port(0).UseBuffer(64, make([]byte, 64), nil)
	c.Port(1).UseBuffer(64, make([]byte, 64), nil)
	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, h.SendCommand(4, 0, "StateSet")) // StateExecuting
	require.Eventually(t, func() bool { return int(h.GetState()) == 4 }, time.Second, time.Millisecond)

	const total = 100
	for i := 0; i < total; i++ {
		in := &port.Header{Data: []byte("0123456789abcdef"), AllocLen: 64, FilledLen: 16}
		out := &port.Header{Data: make([]byte, 64), AllocLen: 64}
		require.NoError(t, c.EmptyThisBuffer(0, port.NewDescriptor(in, port.DirInput, 0, false, nil)))
		require.NoError(t, c.FillThisBuffer(1, port.NewDescriptor(out, port.DirOutput, 1, false, nil)))
	}

	require.Eventually(t, func() bool { return emptied == total && filled == total }, 5*time.Second, time.Millisecond)
}

// TestFlushCompletesWithIdleWorker drives OMX_CommandFlush against a
// filter.copy component whose worker has nothing queued and is
// therefore blocked inside PopBuffer — the exact condition that used
// to stall flush for the full FlushHandshakeTimeout (Port.Flush only
// plugged the write side, so a blocked Pop never woke to observe
// request_flush). The command must now complete quickly.
func TestFlushCompletesWithIdleWorker(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	var cmdComplete atomic.Bool
	h, err := GetHandle("OMX.MF.filter.copy", nil, Callbacks{
		EventHandler: func(c *component.Component, event component.Event, data1, data2 uint32, eventData any) {
			if event == component.EventCmdComplete {
				cmdComplete.Store(true)
			}
		},
	})
	require.NoError(t, err)
	defer FreeHandle(h)

	c := h.Component()
	c.Port(0).UseBuffer(64, make([]byte, 64), nil)
	c.Port(1).UseBuffer(64, make([]byte, 64), nil)
	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, h.SendCommand(4, 0, "StateSet")) // StateExecuting
	require.Eventually(t, func() bool { return int(h.GetState()) == 4 }, time.Second, time.Millisecond)

	// No buffers submitted: the component's single worker is idle,
	// blocked in the input port's PopBuffer, the normal steady state
	// between callbacks.
	require.NoError(t, h.SendCommand(0, -1, "Flush")) // OMX_ALL

	start := time.Now()
	require.Eventually(t, func() bool { return cmdComplete.Load() }, 2*time.Second, time.Millisecond,
		"flush must not stall waiting on an idle worker's blocked Pop")
	assert.Less(t, time.Since(start), 2*time.Second)
}

// TestExecutingToIdleWithIdleWorker checks that the Executing->Idle
// transition completes promptly even when the component's worker is
// idle (blocked in PopBuffer with nothing dispatched) at the moment
// the transition is requested — the same blocked-Pop condition that
// used to stall the flush half of this transition.
func TestExecutingToIdleWithIdleWorker(t *testing.T) {
	require.NoError(t, Init())
	defer Deinit()
	registerFixtures(t)

	h, err := GetHandle("OMX.MF.filter.copy", nil, Callbacks{})
	require.NoError(t, err)
	defer FreeHandle(h)

	c := h.Component()
	c.Port(0).UseBuffer(64, make([]byte, 64), nil)
	c.Port(1).UseBuffer(64, make([]byte, 64), nil)
	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // StateIdle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, time.Second, time.Millisecond)
	require.NoError(t, h.SendCommand(4, 0, "StateSet")) // StateExecuting
	require.Eventually(t, func() bool { return int(h.GetState()) == 4 }, time.Second, time.Millisecond)

	require.NoError(t, h.SendCommand(3, 0, "StateSet")) // back to StateIdle, worker idle
	require.Eventually(t, func() bool { return int(h.GetState()) == 3 }, 2*time.Second, time.Millisecond,
		"Executing->Idle must not stall joining a worker blocked in PopBuffer")
}
