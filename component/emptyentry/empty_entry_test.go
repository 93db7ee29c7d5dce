package emptyentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-omxil/omxilcore/internal/component"
)

func TestEmptyEntryHasNoPortsOrWorkers(t *testing.T) {
	e := New()
	assert.Empty(t, e.PortSpecs())
	assert.Empty(t, e.WorkerSteps(nil))
}

func TestEmptyEntryStateWalk(t *testing.T) {
	c := component.New("OMX.test.emptyentry", Role, component.Callbacks{}, nil, New())
	defer c.Destroy()

	assert.Equal(t, component.StateLoaded, c.State())

	require.NoError(t, c.RequestStateSet(component.StateIdle))
	require.Eventually(t, func() bool { return c.State() == component.StateIdle }, time.Second, time.Millisecond)

	require.NoError(t, c.RequestStateSet(component.StateExecuting))
	require.Eventually(t, func() bool { return c.State() == component.StateExecuting }, time.Second, time.Millisecond)

	require.NoError(t, c.RequestStateSet(component.StateIdle))
	require.Eventually(t, func() bool { return c.State() == component.StateIdle }, time.Second, time.Millisecond)

	require.NoError(t, c.RequestStateSet(component.StateLoaded))
	require.Eventually(t, func() bool { return c.State() == component.StateLoaded }, time.Second, time.Millisecond)
}
