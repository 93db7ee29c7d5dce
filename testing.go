package omxil

import (
	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/port"
)

// MockProcessor is a minimal Processor implementation for tests: one
// input port, one output port, and a single worker that copies every
// input buffer's content to an output buffer verbatim (the same shape
// as the filtercopy demo component, stripped down for unit tests that
// don't want a real media format negotiated).
type MockProcessor struct {
	InputBufferSize  uint32
	OutputBufferSize uint32
}

// NewMockProcessor returns a MockProcessor with the given per-buffer
// size on both ports.
func NewMockProcessor(bufferSize uint32) *MockProcessor {
	return &MockProcessor{InputBufferSize: bufferSize, OutputBufferSize: bufferSize}
}

// PortSpecs implements Processor.
func (m *MockProcessor) PortSpecs() []PortSpec {
	return []PortSpec{
		{
			Direction:      port.DirInput,
			Domain:         port.DomainOther,
			Formats:        port.FormatList{Entries: []port.Format{{Domain: port.DomainOther, Other: port.OtherFormat{FormatType: "raw"}}}},
			BufferCountMin: 1,
			BufferSize:     m.InputBufferSize,
		},
		{
			Direction:      port.DirOutput,
			Domain:         port.DomainOther,
			Formats:        port.FormatList{Entries: []port.Format{{Domain: port.DomainOther, Other: port.OtherFormat{FormatType: "raw"}}}},
			BufferCountMin: 1,
			BufferSize:     m.OutputBufferSize,
		},
	}
}

// WorkerSteps implements Processor: pop one input buffer and one
// output buffer, copy content across, return both.
func (m *MockProcessor) WorkerSteps(c *component.Component) []WorkerStep {
	in := c.Port(0)
	out := c.Port(1)
	return []WorkerStep{
		{Name: "mock-copy", Step: func() (bool, error) {
			inDesc, err := in.PopBuffer()
			if err != nil {
				return false, nil // queue shut down; nothing to do
			}
			outDesc, err := out.PopBuffer()
			if err != nil {
				_ = in.EmptyBufferDone(inDesc)
				return false, nil
			}
			buf := make([]byte, inDesc.Remain())
			n := inDesc.ReadArray(buf)
			outDesc.WriteArray(buf[:n])
			_ = in.EmptyBufferDone(inDesc)
			_ = out.FillBufferDone(outDesc)
			return true, nil
		}},
	}
}

var _ Processor = (*MockProcessor)(nil)
