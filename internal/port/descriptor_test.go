package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputReadArrayAdvancesCursor(t *testing.T) {
	h := &Header{Data: []byte("hello world"), AllocLen: 11, Offset: 0, FilledLen: 11}
	d := NewDescriptor(h, DirInput, 0, false, nil)

	assert.Equal(t, uint32(11), d.Remain())

	dst := make([]byte, 5)
	n := d.ReadArray(dst)
	assert.Equal(t, uint32(5), n)
	assert.Equal(t, "hello", string(dst))
	assert.Equal(t, uint32(6), d.Remain())
	assert.Equal(t, uint32(5), d.Index())
}

func TestInputSkip(t *testing.T) {
	h := &Header{Data: make([]byte, 10), AllocLen: 10, FilledLen: 10}
	d := NewDescriptor(h, DirInput, 0, false, nil)

	skipped := d.Skip(4)
	assert.Equal(t, uint32(4), skipped)
	assert.Equal(t, uint32(6), h.FilledLen)

	// skip past remaining clamps
	skipped = d.Skip(100)
	assert.Equal(t, uint32(6), skipped)
	assert.Equal(t, uint32(0), h.FilledLen)
}

func TestOutputWriteArrayGrowsFilledLen(t *testing.T) {
	h := &Header{Data: make([]byte, 10), AllocLen: 10, Offset: 0, FilledLen: 0}
	d := NewDescriptor(h, DirOutput, 0, false, nil)

	assert.Equal(t, uint32(10), d.Remain())
	n := d.WriteArray([]byte("hi"))
	assert.Equal(t, uint32(2), n)
	assert.Equal(t, uint32(2), h.FilledLen)
	assert.Equal(t, "hi", string(h.Data[:2]))
}

func TestReadOnOutputRejected(t *testing.T) {
	h := &Header{Data: make([]byte, 10), AllocLen: 10}
	d := NewDescriptor(h, DirOutput, 0, false, nil)
	n := d.ReadArray(make([]byte, 4))
	assert.Equal(t, uint32(0), n)
}

func TestWriteOnInputRejected(t *testing.T) {
	h := &Header{Data: make([]byte, 10), AllocLen: 10, FilledLen: 10}
	d := NewDescriptor(h, DirInput, 0, false, nil)
	n := d.WriteArray([]byte("hi"))
	assert.Equal(t, uint32(0), n)
}

func TestResetForFlush(t *testing.T) {
	h := &Header{Data: make([]byte, 10), AllocLen: 10, Offset: 2, FilledLen: 5}
	d := NewDescriptor(h, DirInput, 0, false, nil)
	d.Skip(3)
	d.ResetForFlush()
	assert.Equal(t, uint32(0), h.FilledLen)
	assert.Equal(t, uint32(2), d.Index())
}

func TestReleaseCallsHook(t *testing.T) {
	called := false
	h := &Header{Data: make([]byte, 4), AllocLen: 4}
	d := NewDescriptor(h, DirOutput, 0, true, func() { called = true })
	d.Release()
	assert.True(t, called)
	// second call is a no-op
	d.Release()
	assert.True(t, called)
}
