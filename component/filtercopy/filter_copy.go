// Package filtercopy is a demonstration passthrough filter: one input
// port, one output port, a single worker that copies each input
// buffer's content into an output buffer byte-for-byte and propagates
// EOS and mark fields across the copy. The simplest non-trivial
// Processor that exercises a full Empty+Fill cycle.
package filtercopy

import (
	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/port"
)

// Role is the capability tag this demo component advertises.
const Role = "filter.copy"

// FilterCopy copies every input buffer's content to an output buffer
// verbatim, carrying EOS and mark fields across the copy.
type FilterCopy struct {
	bufferSize uint32
}

// New constructs a FilterCopy with the given per-buffer size on both
// its input and output port.
func New(bufferSize uint32) *FilterCopy {
	if bufferSize == 0 {
		bufferSize = 4096
	}
	return &FilterCopy{bufferSize: bufferSize}
}

func rawFormats() port.FormatList {
	return port.FormatList{Entries: []port.Format{{Domain: port.DomainOther, Other: port.OtherFormat{FormatType: "raw"}}}}
}

// PortSpecs implements component.Processor.
func (f *FilterCopy) PortSpecs() []component.PortSpec {
	return []component.PortSpec{
		{Direction: port.DirInput, Domain: port.DomainOther, Formats: rawFormats(), BufferCountMin: 1, BufferSize: f.bufferSize},
		{Direction: port.DirOutput, Domain: port.DomainOther, Formats: rawFormats(), BufferCountMin: 1, BufferSize: f.bufferSize},
	}
}

// WorkerSteps implements component.Processor: pop one input and one
// output buffer, copy content and flags across, return both.
func (f *FilterCopy) WorkerSteps(c *component.Component) []component.WorkerStep {
	in := c.Port(0)
	out := c.Port(1)
	return []component.WorkerStep{
		{Name: "filter-copy", Step: func() (bool, error) {
			inDesc, err := in.PopBuffer()
			if err != nil {
				return false, nil
			}
			outDesc, err := out.PopBuffer()
			if err != nil {
				_ = in.EmptyBufferDone(inDesc)
				return false, nil
			}

			buf := make([]byte, inDesc.Remain())
			n := inDesc.ReadArray(buf)
			outDesc.WriteArray(buf[:n])

			if inDesc.Header.Flags.Has(port.FlagEOS) {
				outDesc.Header.Flags |= port.FlagEOS
			}
			if inDesc.Header.MarkOwner != "" {
				outDesc.Header.MarkOwner = inDesc.Header.MarkOwner
				outDesc.Header.MarkData = inDesc.Header.MarkData
			}

			_ = in.EmptyBufferDone(inDesc)
			_ = out.FillBufferDone(outDesc)
			return true, nil
		}},
	}
}

var _ component.Processor = (*FilterCopy)(nil)
