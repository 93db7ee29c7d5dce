// Command omxdemo drives the three demonstration components shipped
// alongside this core — reader_binary, filter_copy, and empty_entry —
// through a handful of end-to-end scenarios: flag-selected mode,
// structured logging, a plain-English summary on stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	omxil "github.com/go-omxil/omxilcore"
	"github.com/go-omxil/omxilcore/component/emptyentry"
	"github.com/go-omxil/omxilcore/component/filtercopy"
	"github.com/go-omxil/omxilcore/component/readerbinary"
	"github.com/go-omxil/omxilcore/internal/component"
	"github.com/go-omxil/omxilcore/internal/logging"
	"github.com/go-omxil/omxilcore/internal/port"
)

const (
	nameAudioReader = "OMX.MF.audio_reader.binary"
	nameVideoReader = "OMX.MF.video_reader.binary"
	nameFilterCopy  = "OMX.MF.filter.copy"
	nameEmptyEntry  = "OMX.MF.empty.entry"
)

func main() {
	var (
		mode    = flag.String("mode", "filter", "demo to run: reader, filter, walk")
		count   = flag.Int("count", 100, "number of buffers to exchange (reader/filter modes)")
		bufSize = flag.Uint("bufsize", 4096, "buffer size in bytes")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewLogger(logConfig))

	registerDemoComponents()

	if err := omxil.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "omxdemo: init: %v\n", err)
		os.Exit(1)
	}
	defer omxil.Deinit()

	var err error
	switch *mode {
	case "reader":
		err = runReaderDemo(uint32(*bufSize), *count)
	case "filter":
		err = runFilterDemo(uint32(*bufSize), *count)
	case "walk":
		err = runWalkDemo()
	default:
		fmt.Fprintf(os.Stderr, "omxdemo: unknown mode %q (want reader, filter, walk)\n", *mode)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "omxdemo: %s demo failed: %v\n", *mode, err)
		os.Exit(1)
	}
}

// demoReaderPayload is set by runReaderDemo before calling GetHandle;
// the registry's constructor closure below reads it at construction
// time. GetHandle's registry/constructor flow has no notion of
// per-call arguments (a real plugin negotiates its source via
// SetParameter/SetConfig after construction instead), so this is the
// simplest way for a demo binary to seed one.
var demoReaderPayload []byte

func registerDemoComponents() {
	omxil.RegisterComponent(nameAudioReader, func(name string) (any, error) {
		return readerbinary.NewAudio(demoReaderPayload, 4096), nil
	}, func(any) {})
	omxil.RegisterComponentRole(nameAudioReader, readerbinary.RoleAudio)

	omxil.RegisterComponent(nameVideoReader, func(name string) (any, error) {
		return readerbinary.NewVideo(nil, 4096), nil
	}, func(any) {})
	omxil.RegisterComponentRole(nameVideoReader, readerbinary.RoleVideo)

	omxil.RegisterComponent(nameFilterCopy, func(name string) (any, error) {
		return filtercopy.New(4096), nil
	}, func(any) {})
	omxil.RegisterComponentRole(nameFilterCopy, filtercopy.Role)

	omxil.RegisterComponent(nameEmptyEntry, func(name string) (any, error) {
		return emptyentry.New(), nil
	}, func(any) {})
	omxil.RegisterComponentRole(nameEmptyEntry, emptyentry.Role)
}

// awaitState blocks until the handle reports want, polling GetState,
// the one query that is non-blocking at any time.
func awaitState(h *omxil.Handle, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if int(h.GetState()) == want {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

const (
	stateIdle      = 3
	stateExecuting = 4
)

// runWalkDemo walks the port-less empty_entry component through
// Loaded→Idle→Executing→Idle, each transition confirmed via
// GetState after SendCommand.
func runWalkDemo() error {
	h, err := omxil.GetHandle(nameEmptyEntry, nil, omxil.Callbacks{
		EventHandler: func(c *component.Component, event omxil.Event, data1, data2 uint32, eventData any) {
			if event == omxil.EventError {
				fmt.Printf("walk: error event reason=%v\n", eventData)
			}
		},
	})
	if err != nil {
		return err
	}
	defer omxil.FreeHandle(h)

	if err := h.SendCommand(stateIdle, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateIdle, time.Second) {
		return fmt.Errorf("timed out waiting for Idle")
	}
	if err := h.SendCommand(stateExecuting, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateExecuting, time.Second) {
		return fmt.Errorf("timed out waiting for Executing")
	}
	if err := h.SendCommand(stateIdle, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateIdle, time.Second) {
		return fmt.Errorf("timed out returning to Idle")
	}

	fmt.Println("walk: Loaded -> Idle -> Executing -> Idle, all transitions confirmed")
	return nil
}

// runReaderDemo exercises an audio_reader.binary source: negotiate
// Idle with one buffer on its single output port, enter Executing,
// and submit empty buffers via FillThisBuffer until the reader's
// in-memory payload is exhausted (EOS observed).
func runReaderDemo(bufSize uint32, count int) error {
	payload := make([]byte, int(bufSize)*count)
	for i := range payload {
		payload[i] = byte(i)
	}
	demoReaderPayload = payload

	var (
		wg       sync.WaitGroup
		fillDone int
		sawEOS   bool
		mu       sync.Mutex
	)

	h, err := omxil.GetHandle(nameAudioReader, nil, omxil.Callbacks{
		FillBufferDone: func(c *component.Component, appData any, header *port.Header) {
			mu.Lock()
			fillDone++
			if header.Flags.Has(port.FlagEOS) {
				sawEOS = true
			}
			mu.Unlock()
			wg.Done()
		},
	})
	if err != nil {
		return err
	}
	defer omxil.FreeHandle(h)

	outPort := h.Component().Port(0) // constructed via PortSpecs; index 0 is the output port
	if outPort == nil {
		return fmt.Errorf("reader component has no output port")
	}
	bufs := make([]*port.Descriptor, 0, 2)
	for i := 0; i < 1; i++ {
		bufs = append(bufs, outPort.UseBuffer(bufSize, make([]byte, bufSize), nil))
	}

	if err := h.SendCommand(stateIdle, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateIdle, time.Second) {
		return fmt.Errorf("timed out negotiating Idle")
	}
	if err := h.SendCommand(stateExecuting, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateExecuting, time.Second) {
		return fmt.Errorf("timed out entering Executing")
	}

	wg.Add(count)
	for i := 0; i < count; i++ {
		d := bufs[i%len(bufs)]
		if err := h.Component().FillThisBuffer(0, d); err != nil {
			return err
		}
	}
	wg.Wait()

	fmt.Printf("reader: %d FillBufferDone callbacks observed, eos=%v\n", fillDone, sawEOS)
	return nil
}

// runFilterDemo drives filter.copy end to end: negotiate Idle with
// one buffer on each port, enter Executing, submit count
// input buffers carrying a recognizable pattern and count output
// buffers, and confirm every FillBufferDone callback carries the same
// pattern back.
func runFilterDemo(bufSize uint32, count int) error {
	var (
		wg        sync.WaitGroup
		mismatch  int
		fillDone  int
		emptyDone int
		mu        sync.Mutex
	)

	h, err := omxil.GetHandle(nameFilterCopy, nil, omxil.Callbacks{
		EmptyBufferDone: func(c *component.Component, appData any, header *port.Header) {
			mu.Lock()
			emptyDone++
			mu.Unlock()
		},
		FillBufferDone: func(c *component.Component, appData any, header *port.Header) {
			mu.Lock()
			fillDone++
			want, _ := appData.(byte)
			if header.FilledLen == 0 || header.Data[0] != want {
				mismatch++
			}
			mu.Unlock()
			wg.Done()
		},
	})
	if err != nil {
		return err
	}
	defer omxil.FreeHandle(h)

	in := h.Component().Port(0)
	out := h.Component().Port(1)

	inBufs := make([]*port.Descriptor, 0, 2)
	outBufs := make([]*port.Descriptor, 0, 2)
	for i := 0; i < 1; i++ {
		inBufs = append(inBufs, in.UseBuffer(bufSize, make([]byte, bufSize), nil))
		outBufs = append(outBufs, out.UseBuffer(bufSize, make([]byte, bufSize), nil))
	}

	if err := h.SendCommand(stateIdle, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateIdle, time.Second) {
		return fmt.Errorf("timed out negotiating Idle")
	}
	if err := h.SendCommand(stateExecuting, 0, "StateSet"); err != nil {
		return err
	}
	if !awaitState(h, stateExecuting, time.Second) {
		return fmt.Errorf("timed out entering Executing")
	}

	wg.Add(count)
	for i := 0; i < count; i++ {
		pattern := byte(i)
		inDesc := inBufs[i%len(inBufs)]
		copy(inDesc.Header.Data, []byte{pattern})
		inDesc.Header.FilledLen = uint32(len(inDesc.Header.Data))
		inDesc.Header.Offset = 0

		outDesc := outBufs[i%len(outBufs)]
		outDesc.Header.AppPrivate = pattern
		outDesc.Header.FilledLen = 0

		if err := h.Component().EmptyThisBuffer(0, inDesc); err != nil {
			return err
		}
		if err := h.Component().FillThisBuffer(1, outDesc); err != nil {
			return err
		}
	}
	wg.Wait()

	fmt.Printf("filter: %d EmptyBufferDone, %d FillBufferDone, %d pattern mismatches\n", emptyDone, fillDone, mismatch)
	if mismatch > 0 {
		return fmt.Errorf("%d of %d buffers had a pattern mismatch", mismatch, count)
	}
	return nil
}
