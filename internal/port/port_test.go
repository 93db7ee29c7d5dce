package port

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-omxil/omxilcore/internal/omxerr"
)

type recordingSink struct {
	mu        sync.Mutex
	emptied   []*Descriptor
	filled    []*Descriptor
	flaggedAt []int
}

func (s *recordingSink) BufferFlag(portIndex int, d *Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flaggedAt = append(s.flaggedAt, portIndex)
}

func (s *recordingSink) EmptyDone(d *Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptied = append(s.emptied, d)
	return nil
}

func (s *recordingSink) FillDone(d *Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filled = append(s.filled, d)
	return nil
}

func (s *recordingSink) count() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emptied), len(s.filled)
}

func testFormats() FormatList {
	return FormatList{Entries: []Format{{Domain: DomainOther, Other: OtherFormat{FormatType: "raw"}}}}
}

func TestUseBufferPopulatesWhenCountMatches(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 4096, 4, sink)
	defer p.Close()

	assert.False(t, p.Populated())
	p.UseBuffer(4096, make([]byte, 4096), nil)
	assert.True(t, p.Populated())
}

func TestAllocateBufferAndFree(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirOutput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer p.Close()

	d, err := p.AllocateBuffer(256, nil)
	require.NoError(t, err)
	require.True(t, p.Populated())

	require.NoError(t, p.FreeBuffer(d))
	assert.False(t, p.Populated())
}

func TestFreeUnregisteredBufferFails(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer p.Close()

	other := NewDescriptor(&Header{Data: make([]byte, 4), AllocLen: 4}, DirInput, 0, false, nil)
	err := p.FreeBuffer(other)
	assert.True(t, omxerr.IsCode(err, omxerr.CodeBadParameter))
}

func TestEmptyThisBufferRejectedWhenGateClosed(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer p.Close()

	d := p.UseBuffer(256, make([]byte, 256), nil)
	err := p.EmptyThisBuffer(d, func() bool { return false })
	assert.True(t, omxerr.IsCode(err, omxerr.CodeIncorrectStateOperation))
}

func TestEmptyThisBufferFlowsToReturnCallback(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer p.Close()

	d := p.UseBuffer(256, make([]byte, 256), "app-priv")
	require.NoError(t, p.EmptyThisBuffer(d, func() bool { return true }))

	popped, err := p.PopBuffer()
	require.NoError(t, err)
	require.NoError(t, p.EmptyBufferDone(popped))

	require.Eventually(t, func() bool {
		n, _ := sink.count()
		return n == 1
	}, time.Second, time.Millisecond)
}

func TestFlushDrainsDispatchToReturn(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer func() {
		p.Restart()
		p.Close()
	}()

	d := p.UseBuffer(256, make([]byte, 256), nil)
	d.Header.FilledLen = 100
	require.NoError(t, p.EmptyThisBuffer(d, func() bool { return true }))

	p.Flush()

	require.Eventually(t, func() bool {
		n, _ := sink.count()
		return n == 1
	}, time.Second, time.Millisecond)
}

func TestFormatEnumeration(t *testing.T) {
	sink := &recordingSink{}
	formats := FormatList{Entries: []Format{
		{Domain: DomainOther, Other: OtherFormat{FormatType: "raw"}},
		{Domain: DomainOther, Other: OtherFormat{FormatType: "pcm"}},
	}}
	p := New(0, DirInput, DomainOther, formats, 1, 256, 4, sink)
	defer p.Close()

	f0, err := p.FormatAt(0)
	require.NoError(t, err)
	assert.Equal(t, "raw", f0.Other.FormatType)

	_, err = p.FormatAt(2)
	assert.True(t, omxerr.IsCode(err, omxerr.CodeNoMore))
}

func TestSetFormatRejectsUnlisted(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 1, 256, 4, sink)
	defer p.Close()

	err := p.SetFormat(Format{Domain: DomainOther, Other: OtherFormat{FormatType: "not-listed"}})
	assert.True(t, omxerr.IsCode(err, omxerr.CodeUnsupportedSetting))
}

func TestSetBufferCountActualBelowMinRejected(t *testing.T) {
	sink := &recordingSink{}
	p := New(0, DirInput, DomainOther, testFormats(), 2, 256, 4, sink)
	defer p.Close()

	err := p.SetBufferCountActual(1)
	assert.True(t, omxerr.IsCode(err, omxerr.CodeBadParameter))
}
