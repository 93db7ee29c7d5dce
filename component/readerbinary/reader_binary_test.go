package readerbinary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/port"
)

func TestReaderBinaryPortSpecsAudio(t *testing.T) {
	r := NewAudio([]byte("abc"), 16)
	specs := r.PortSpecs()
	require.Len(t, specs, 1)
	assert.Equal(t, port.DirOutput, specs[0].Direction)
	assert.Equal(t, port.DomainAudio, specs[0].Domain)
}

func TestReaderBinaryPortSpecsVideo(t *testing.T) {
	r := NewVideo([]byte("abc"), 16)
	specs := r.PortSpecs()
	assert.Equal(t, port.DomainVideo, specs[0].Domain)
}

func TestReaderBinaryStreamsDataAndFlagsEOS(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}

	var (
		filled    [][]byte
		eosCount  int
		callCount int
	)
	cb := component.Callbacks{
		FillBufferDone: func(c *component.Component, appData any, h *port.Header) {
			buf := make([]byte, h.FilledLen)
			copy(buf, h.Data[:h.FilledLen])
			filled = append(filled, buf)
			callCount++
			if h.Flags.Has(port.FlagEOS) {
				eosCount++
			}
		},
	}
	c := component.New("OMX.test.reader", RoleAudio, cb, nil, NewAudio(data, 16))
	defer c.Destroy()

	c.Port(0).UseBuffer(16, make([]byte, 16), nil)
	require.NoError(t, c.RequestStateSet(component.StateIdle))
	require.Eventually(t, func() bool { return c.State() == component.StateIdle }, time.Second, time.Millisecond)
	require.NoError(t, c.RequestStateSet(component.StateExecuting))
	require.Eventually(t, func() bool { return c.State() == component.StateExecuting }, time.Second, time.Millisecond)

	out := &port.Header{Data: make([]byte, 16), AllocLen: 16}
	outDesc := port.NewDescriptor(out, port.DirOutput, 0, false, nil)

	for i := 0; i < len(data)/16+1; i++ {
		require.NoError(t, c.FillThisBuffer(0, outDesc))
		require.Eventually(t, func() bool { return callCount == i+1 }, time.Second, time.Millisecond)
		out.FilledLen = 0
		out.Offset = 0
		outDesc = port.NewDescriptor(out, port.DirOutput, 0, false, nil)
	}

	assert.Equal(t, 1, eosCount)
	var total []byte
	for _, b := range filled {
		total = append(total, b...)
	}
	assert.Equal(t, data, total[:len(data)])
}
