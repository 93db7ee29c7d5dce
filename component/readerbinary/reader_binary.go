// Package readerbinary is a demonstration source component: it owns no
// input port, only a single output port, and streams an in-memory byte
// slice out through it a buffer at a time, flagging EOS on the last
// chunk. One domain-parameterized type covers both the audio and video
// roles rather than two near-duplicate subclasses.
//
// GetRolesOfComponent on "OMX.MF.audio_reader.binary" returns
// "audio_reader.binary", and GetComponentsOfRole("video_reader.binary",
// ...) includes "OMX.MF.video_reader.binary".
package readerbinary

import (
	"sync"

	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/port"
)

// Role names this component advertises.
const (
	RoleAudio = "audio_reader.binary"
	RoleVideo = "video_reader.binary"
)

// ReaderBinary streams Data out through its single output port.
type ReaderBinary struct {
	domain     port.Domain
	bufferSize uint32

	mu   sync.Mutex
	data []byte
	pos  int
}

// NewAudio constructs a reader_binary instance for the audio domain,
// the Go analogue of audio_reader_binary's constructor.
func NewAudio(data []byte, bufferSize uint32) *ReaderBinary {
	return newReaderBinary(port.DomainAudio, data, bufferSize)
}

// NewVideo constructs a reader_binary instance for the video domain.
func NewVideo(data []byte, bufferSize uint32) *ReaderBinary {
	return newReaderBinary(port.DomainVideo, data, bufferSize)
}

func newReaderBinary(domain port.Domain, data []byte, bufferSize uint32) *ReaderBinary {
	if bufferSize == 0 {
		bufferSize = 4096
	}
	return &ReaderBinary{domain: domain, bufferSize: bufferSize, data: data}
}

// SetData replaces the backing byte slice and rewinds the read
// position, letting a test or the cmd/omxdemo CLI reuse one instance
// across runs.
func (r *ReaderBinary) SetData(data []byte) {
	r.mu.Lock()
	r.data = data
	r.pos = 0
	r.mu.Unlock()
}

func (r *ReaderBinary) outputFormats() port.FormatList {
	switch r.domain {
	case port.DomainVideo:
		return port.FormatList{Entries: []port.Format{{
			Domain: port.DomainVideo,
			MIME:   "video/raw",
			Video:  port.VideoFormat{Color: "YUV420Planar"},
		}}}
	default:
		return port.FormatList{Entries: []port.Format{{
			Domain: port.DomainAudio,
			MIME:   "audio/raw",
			Audio:  port.AudioFormat{Encoding: "PCM16", SampleRate: 44100, NumChannels: 2, BitsPerSample: 16},
		}}}
	}
}

// PortSpecs implements component.Processor: one output port, no input.
func (r *ReaderBinary) PortSpecs() []component.PortSpec {
	return []component.PortSpec{
		{
			Direction:      port.DirOutput,
			Domain:         r.domain,
			Formats:        r.outputFormats(),
			BufferCountMin: 1,
			BufferSize:     r.bufferSize,
		},
	}
}

// WorkerSteps implements component.Processor: one worker draining the
// output port's dispatch queue, filling each buffer from Data in
// order and flagging EOS on the final chunk.
func (r *ReaderBinary) WorkerSteps(c *component.Component) []component.WorkerStep {
	out := c.Port(0)
	return []component.WorkerStep{
		{Name: "reader-binary", Step: func() (bool, error) {
			desc, err := out.PopBuffer()
			if err != nil {
				return false, nil // dispatch queue shut down (flush/teardown)
			}

			r.mu.Lock()
			chunk := r.nextChunkLocked(int(desc.Remain()))
			r.mu.Unlock()

			n := desc.WriteArray(chunk)
			_ = n
			r.mu.Lock()
			eos := r.pos >= len(r.data)
			r.mu.Unlock()
			if eos {
				desc.Header.Flags |= port.FlagEOS
			}
			_ = out.FillBufferDone(desc)
			return true, nil
		}},
	}
}

// nextChunkLocked returns up to max bytes starting at pos and advances
// pos. Caller holds r.mu.
func (r *ReaderBinary) nextChunkLocked(max int) []byte {
	if r.pos >= len(r.data) {
		return nil
	}
	end := r.pos + max
	if end > len(r.data) {
		end = len(r.data)
	}
	chunk := r.data[r.pos:end]
	r.pos = end
	return chunk
}

var _ component.Processor = (*ReaderBinary)(nil)
