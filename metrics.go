package omxil

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks per-component buffer-flow statistics: how many
// buffers crossed EmptyThisBuffer/FillThisBuffer, how many bytes, how
// long the client's EmptyBufferDone/FillBufferDone callback took for
// each returned buffer, and how deep the dispatch queues ran.
type Metrics struct {
	EmptyOps atomic.Uint64 // total EmptyThisBuffer completions
	FillOps  atomic.Uint64 // total FillThisBuffer completions
	FlushOps atomic.Uint64 // total flush cycles

	EmptyBytes atomic.Uint64
	FillBytes  atomic.Uint64

	EmptyErrors atomic.Uint64
	FillErrors  atomic.Uint64
	FlushErrors atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a metrics instance stamped with the current time.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordEmpty records one input buffer returned to the client.
func (m *Metrics) RecordEmpty(bytes uint64, latencyNs uint64, success bool) {
	m.EmptyOps.Add(1)
	if success {
		m.EmptyBytes.Add(bytes)
	} else {
		m.EmptyErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordFill records one output buffer returned to the client.
func (m *Metrics) RecordFill(bytes uint64, latencyNs uint64, success bool) {
	m.FillOps.Add(1)
	if success {
		m.FillBytes.Add(bytes)
	} else {
		m.FillErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordFlush records a single port's flush cycle.
func (m *Metrics) RecordFlush(latencyNs uint64, success bool) {
	m.FlushOps.Add(1)
	if !success {
		m.FlushErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordQueueDepth samples a dispatch or return queue's occupancy.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the component as torn down.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time readout of Metrics.
type MetricsSnapshot struct {
	EmptyOps uint64
	FillOps  uint64
	FlushOps uint64

	EmptyBytes uint64
	FillBytes  uint64

	EmptyErrors uint64
	FillErrors  uint64
	FlushErrors uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot captures current counter values into a MetricsSnapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		EmptyOps:      m.EmptyOps.Load(),
		FillOps:       m.FillOps.Load(),
		FlushOps:      m.FlushOps.Load(),
		EmptyBytes:    m.EmptyBytes.Load(),
		FillBytes:     m.FillBytes.Load(),
		EmptyErrors:   m.EmptyErrors.Load(),
		FillErrors:    m.FillErrors.Load(),
		FlushErrors:   m.FlushErrors.Load(),
		MaxQueueDepth: m.MaxQueueDepth.Load(),
	}

	snap.TotalOps = snap.EmptyOps + snap.FillOps + snap.FlushOps
	snap.TotalBytes = snap.EmptyBytes + snap.FillBytes

	if c := m.QueueDepthCount.Load(); c > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(c)
	}

	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = m.TotalLatencyNs.Load() / opCount
	}

	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	totalErrors := snap.EmptyErrors + snap.FillErrors + snap.FlushErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters; useful between test cases.
func (m *Metrics) Reset() {
	m.EmptyOps.Store(0)
	m.FillOps.Store(0)
	m.FlushOps.Store(0)
	m.EmptyBytes.Store(0)
	m.FillBytes.Store(0)
	m.EmptyErrors.Store(0)
	m.FillErrors.Store(0)
	m.FlushErrors.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection for a component.
type Observer interface {
	ObserveEmpty(bytes uint64, latencyNs uint64, success bool)
	ObserveFill(bytes uint64, latencyNs uint64, success bool)
	ObserveFlush(latencyNs uint64, success bool)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveEmpty(uint64, uint64, bool) {}
func (NoOpObserver) ObserveFill(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveFlush(uint64, bool)         {}
func (NoOpObserver) ObserveQueueDepth(uint32)          {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer recording into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveEmpty(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordEmpty(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveFill(bytes, latencyNs uint64, success bool) {
	o.metrics.RecordFill(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveFlush(latencyNs uint64, success bool) {
	o.metrics.RecordFlush(latencyNs, success)
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {
	o.metrics.RecordQueueDepth(depth)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
