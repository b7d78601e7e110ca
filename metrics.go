package aio

import (
	"sync/atomic"
	"time"

	"github.com/aioq/go-aio/internal/interfaces"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
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

// Metrics tracks performance and operational statistics for a process's
// outstanding aio requests.
type Metrics struct {
	// I/O operation counters
	ReadOps  atomic.Uint64
	WriteOps atomic.Uint64
	SyncOps  atomic.Uint64

	// Byte counters
	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	// Error counters
	ReadErrors atomic.Uint64
	WriteErrors atomic.Uint64
	SyncErrors  atomic.Uint64

	// Cancel outcomes, one counter per CancelResult value.
	CancelAllDoneCount    atomic.Uint64
	CancelCanceledCount   atomic.Uint64
	CancelNotCanceledCount atomic.Uint64

	// In-flight worker gauge, fed only by explicit RecordInFlight calls;
	// neither submission nor worker completion samples it.
	InFlightTotal atomic.Uint64 // cumulative sum of samples
	InFlightCount atomic.Uint64 // number of samples
	MaxInFlight   atomic.Uint32

	// Performance tracking
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative): bucket[i] counts
	// operations with latency <= LatencyBuckets[i].
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64 // UnixNano
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRead records a read operation.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records a write operation.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordSync records an fsync/fdatasync operation.
func (m *Metrics) RecordSync(latencyNs uint64, success bool) {
	m.SyncOps.Add(1)
	if !success {
		m.SyncErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordCancel records the outcome of a Cancel call. result must be one
// of CancelAllDone, CancelCanceled, CancelNotCanceled.
func (m *Metrics) RecordCancel(result int) {
	switch CancelResult(result) {
	case CancelCanceled:
		m.CancelCanceledCount.Add(1)
	case CancelNotCanceled:
		m.CancelNotCanceledCount.Add(1)
	default:
		m.CancelAllDoneCount.Add(1)
	}
}

// RecordInFlight samples the current number of outstanding workers.
func (m *Metrics) RecordInFlight(n uint32) {
	m.InFlightTotal.Add(uint64(n))
	m.InFlightCount.Add(1)
	for {
		current := m.MaxInFlight.Load()
		if n <= current {
			break
		}
		if m.MaxInFlight.CompareAndSwap(current, n) {
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

// Stop marks metrics collection as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics plus derived
// statistics.
type MetricsSnapshot struct {
	ReadOps  uint64
	WriteOps uint64
	SyncOps  uint64

	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors uint64
	WriteErrors uint64
	SyncErrors  uint64

	CancelAllDoneCount     uint64
	CancelCanceledCount    uint64
	CancelNotCanceledCount uint64

	AvgInFlight float64
	MaxInFlight uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	ReadIOPS       float64
	WriteIOPS      float64
	ReadBandwidth  float64
	WriteBandwidth float64
	TotalOps       uint64
	TotalBytes     uint64
	ErrorRate      float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ReadOps:                m.ReadOps.Load(),
		WriteOps:                m.WriteOps.Load(),
		SyncOps:                 m.SyncOps.Load(),
		ReadBytes:               m.ReadBytes.Load(),
		WriteBytes:              m.WriteBytes.Load(),
		ReadErrors:              m.ReadErrors.Load(),
		WriteErrors:             m.WriteErrors.Load(),
		SyncErrors:              m.SyncErrors.Load(),
		CancelAllDoneCount:      m.CancelAllDoneCount.Load(),
		CancelCanceledCount:     m.CancelCanceledCount.Load(),
		CancelNotCanceledCount:  m.CancelNotCanceledCount.Load(),
		MaxInFlight:             m.MaxInFlight.Load(),
	}

	snap.TotalOps = snap.ReadOps + snap.WriteOps + snap.SyncOps
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	inFlightTotal := m.InFlightTotal.Load()
	inFlightCount := m.InFlightCount.Load()
	if inFlightCount > 0 {
		snap.AvgInFlight = float64(inFlightTotal) / float64(inFlightCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.ReadIOPS = float64(snap.ReadOps) / uptimeSeconds
		snap.WriteIOPS = float64(snap.WriteOps) / uptimeSeconds
		snap.ReadBandwidth = float64(snap.ReadBytes) / uptimeSeconds
		snap.WriteBandwidth = float64(snap.WriteBytes) / uptimeSeconds
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors + snap.SyncErrors
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

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
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

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.ReadOps.Store(0)
	m.WriteOps.Store(0)
	m.SyncOps.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.SyncErrors.Store(0)
	m.CancelAllDoneCount.Store(0)
	m.CancelCanceledCount.Store(0)
	m.CancelNotCanceledCount.Store(0)
	m.InFlightTotal.Store(0)
	m.InFlightCount.Store(0)
	m.MaxInFlight.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer is the pluggable metrics-collection interface every Submit
// and Cancel call reports through. It is a type alias for
// internal/interfaces.Observer so internal/queue (which cannot import
// the root package without creating a cycle) and this package agree on
// exactly one shape.
type Observer = interfaces.Observer

// NoOpObserver is a no-op Observer, the default until SetObserver is
// called.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveSync(uint64, bool)          {}
func (NoOpObserver) ObserveCancel(int)                 {}

// MetricsObserver implements Observer on top of the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given
// metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveSync(latencyNs uint64, success bool) {
	o.metrics.RecordSync(latencyNs, success)
}

func (o *MetricsObserver) ObserveCancel(result int) {
	o.metrics.RecordCancel(result)
}

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
