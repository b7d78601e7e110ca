// Package futex provides a condition-variable-backed integer word used
// as a futex-style wake target: readers block on a predicate over the
// value, writers swap it and broadcast when it changes.
//
// Go has no userspace futex syscall, so every blocking wait in this
// module goes through one of these words instead of a raw kernel futex.
package futex

import "sync"

// Word is a goroutine-safe int32 with condition-variable wake support.
type Word struct {
	mu   sync.Mutex
	cond sync.Cond
	v    int32
}

// New returns a Word initialized to v.
func New(v int32) *Word {
	w := &Word{v: v}
	w.cond.L = &w.mu
	return w
}

// Load returns the current value.
func (w *Word) Load() int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.v
}

// Swap sets the value to v and returns the previous value. Broadcasts
// to any waiters if the value actually changed.
func (w *Word) Swap(v int32) int32 {
	w.mu.Lock()
	old := w.v
	w.v = v
	if old != v {
		w.cond.Broadcast()
	}
	w.mu.Unlock()
	return old
}

// CompareAndSwap sets the value to v if the current value equals old,
// reporting whether the swap happened. Broadcasts on success.
func (w *Word) CompareAndSwap(old, v int32) bool {
	w.mu.Lock()
	ok := w.v == old
	if ok {
		w.v = v
		w.cond.Broadcast()
	}
	w.mu.Unlock()
	return ok
}

// Bump increments the value unconditionally and broadcasts, returning
// the new value. Used where only "something happened" matters, not a
// specific target value (e.g. a generation counter for general wakeup).
func (w *Word) Bump() int32 {
	w.mu.Lock()
	w.v++
	w.cond.Broadcast()
	v := w.v
	w.mu.Unlock()
	return v
}

// Wait blocks until pred holds for the current value, then returns it.
func (w *Word) Wait(pred func(int32) bool) int32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	for !pred(w.v) {
		w.cond.Wait()
	}
	return w.v
}
