package aio

import "sync"

// MockCallbackNotifier is a NotifyCallback.Func target for tests: it
// records every value it's invoked with under a mutex, in invocation
// order, so a test can assert completion fired exactly once with the
// expected payload without plumbing a real channel through Submit.
type MockCallbackNotifier struct {
	mu    sync.Mutex
	calls []int
}

// Track is the function to assign as NotifyCallback.Func, e.g.:
//
//	n := &MockCallbackNotifier{}
//	cb.Notify = aio.NotifyCallback{Func: n.Track, Value: 7}
func (n *MockCallbackNotifier) Track(value int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, value)
}

// Calls returns a copy of every value Track has observed so far, in
// invocation order.
func (n *MockCallbackNotifier) Calls() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int, len(n.calls))
	copy(out, n.calls)
	return out
}

// CallCount reports how many times Track has been invoked.
func (n *MockCallbackNotifier) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// Reset clears recorded calls.
func (n *MockCallbackNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

// MockObserver is an Observer test double recording every call it
// receives, for assertions that a Submit/Cancel path actually reported
// telemetry rather than silently skipping the observer hook.
type MockObserver struct {
	mu      sync.Mutex
	reads   []mockIOObservation
	writes  []mockIOObservation
	syncs   []mockSyncObservation
	cancels []int
}

type mockIOObservation struct {
	Bytes     uint64
	LatencyNs uint64
	Success   bool
}

type mockSyncObservation struct {
	LatencyNs uint64
	Success   bool
}

func (o *MockObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reads = append(o.reads, mockIOObservation{bytes, latencyNs, success})
}

func (o *MockObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = append(o.writes, mockIOObservation{bytes, latencyNs, success})
}

func (o *MockObserver) ObserveSync(latencyNs uint64, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.syncs = append(o.syncs, mockSyncObservation{latencyNs, success})
}

func (o *MockObserver) ObserveCancel(result int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancels = append(o.cancels, result)
}

// ReadCount reports how many ObserveRead calls were recorded.
func (o *MockObserver) ReadCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.reads)
}

// WriteCount reports how many ObserveWrite calls were recorded.
func (o *MockObserver) WriteCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writes)
}

// CancelResults returns a copy of every result ObserveCancel recorded.
func (o *MockObserver) CancelResults() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]int, len(o.cancels))
	copy(out, o.cancels)
	return out
}

var _ Observer = (*MockObserver)(nil)
