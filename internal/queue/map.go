package queue

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/constants"
	"github.com/aioq/go-aio/internal/futex"
	"github.com/aioq/go-aio/internal/interfaces"
	"github.com/aioq/go-aio/internal/rtsignal"
)

const (
	l0Bits = constants.MapLevel0Bits
	l1Bits = constants.MapLevel1Bits
	l2Bits = constants.MapLevel2Bits
	l3Bits = constants.MapLevel3Bits

	l0Size = 1 << l0Bits
	l1Size = 1 << l1Bits
	l2Size = 1 << l2Bits
	l3Size = 1 << l3Bits

	l3Shift = 0
	l2Shift = l3Bits
	l1Shift = l3Bits + l2Bits
	l0Shift = l3Bits + l2Bits + l1Bits
)

type leafLevel [l3Size]*Queue
type midLevel [l2Size]*leafLevel
type topLevel [l1Size]*midLevel

// Map is the sparse descriptor -> Queue lookup table (Component A): a
// four-level trie lazily allocated as descriptors are first used, so an
// idle process with a handful of open fds pays for a handful of leaf
// nodes rather than a table sized to the fd space.
type Map struct {
	mu      sync.RWMutex
	roots   [l0Size]*topLevel
	fdCount atomic.Int64

	// WakeWord is bumped on every request completion across every
	// queue, giving a generic "something finished" wait point for
	// callers that don't want to wait on one specific Cb.
	WakeWord *futex.Word

	Logger   interfaces.Logger
	Observer interfaces.Observer
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{WakeWord: futex.New(0)}
}

func indices(fd int32) (i0, i1, i2, i3 int) {
	i0 = int((fd >> l0Shift) & (l0Size - 1))
	i1 = int((fd >> l1Shift) & (l1Size - 1))
	i2 = int((fd >> l2Shift) & (l2Size - 1))
	i3 = int(fd & (l3Size - 1))
	return
}

func (m *Map) find(fd int32) *Queue {
	i0, i1, i2, i3 := indices(fd)
	root := m.roots[i0]
	if root == nil {
		return nil
	}
	mid := root[i1]
	if mid == nil {
		return nil
	}
	leaf := mid[i2]
	if leaf == nil {
		return nil
	}
	return leaf[i3]
}

func (m *Map) insert(fd int32, q *Queue) {
	i0, i1, i2, i3 := indices(fd)
	root := m.roots[i0]
	if root == nil {
		root = &topLevel{}
		m.roots[i0] = root
	}
	mid := root[i1]
	if mid == nil {
		mid = &midLevel{}
		root[i1] = mid
	}
	leaf := mid[i2]
	if leaf == nil {
		leaf = &leafLevel{}
		mid[i2] = leaf
	}
	leaf[i3] = q
}

func (m *Map) remove(fd int32) {
	i0, i1, i2, i3 := indices(fd)
	root := m.roots[i0]
	if root == nil {
		return
	}
	mid := root[i1]
	if mid == nil {
		return
	}
	leaf := mid[i2]
	if leaf == nil {
		return
	}
	leaf[i3] = nil
}

// LiveQueues reports the number of descriptors with an active Queue.
func (m *Map) LiveQueues() int64 { return m.fdCount.Load() }

// Lookup returns the Queue for fd, locked, per the ordering contract
// used throughout this package: whenever both locks are held, the Map's
// lock is taken before the Queue's mutex, never the reverse, so destruction
// (Queue.Unref dropping the last reference) cannot race a concurrent
// lookup into using a Queue that is mid-teardown.
//
// If create is false and no Queue exists, Lookup returns (nil, nil)
// with no error, signaling "nothing outstanding on this fd" to callers
// like Cancel.
func (m *Map) Lookup(fd int32, create bool) (*Queue, error) {
	if fd < 0 {
		return nil, unix.EBADF
	}

	m.mu.RLock()
	if q := m.find(fd); q != nil {
		q.mu.Lock()
		m.mu.RUnlock()
		return q, nil
	}
	m.mu.RUnlock()

	if !create {
		return nil, nil
	}

	// Validate the descriptor before paying for a trie insert; a closed
	// or never-opened fd should fail fast with EBADF rather than
	// silently growing the trie.
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		return nil, unix.EBADF
	}

	var q *Queue
	rtsignal.WithAllBlocked(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if existing := m.find(fd); existing != nil {
			existing.mu.Lock()
			q = existing
			return
		}
		nq := newQueue(fd, m)
		nq.mu.Lock()
		m.insert(fd, nq)
		m.fdCount.Add(1)
		q = nq
	})
	return q, nil
}

// PreFork acquires the Map's read lock; intended for use from a
// prepare-fork hook so no structural mutation is in flight when
// fork(2) is called. See PostForkParent and PostForkChild.
func (m *Map) PreFork() { m.mu.RLock() }

// PostForkParent releases the lock PreFork acquired.
func (m *Map) PostForkParent() { m.mu.RUnlock() }

// PostForkChild resets the Map to empty state in a freshly forked
// child. Per spec.md's fork-safety notes, it never touches a Queue's
// mutex or condition variable — their lock state after fork is
// indeterminate, so the old trie is simply discarded rather than
// walked and torn down.
func (m *Map) PostForkChild() {
	m.fdCount.Store(0)
	// The read lock PreFork acquired before fork(2) is not released
	// individually: the probe below only takes and drops a read lock of
	// its own, and replacing the mutex outright discards every holder's
	// state, including PreFork's.
	if m.mu.TryRLock() {
		m.mu.RUnlock()
	}
	for i := range m.roots {
		m.roots[i] = nil
	}
	m.mu = sync.RWMutex{}
}
