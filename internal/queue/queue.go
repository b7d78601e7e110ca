package queue

import "sync"

// Queue is the per-descriptor container of active requests (Component
// B): an intrusive, head-inserted doubly linked list of Requests plus
// the descriptor-level facts (seekable, append-only) probed once by the
// first worker to touch the fd.
type Queue struct {
	fd  int32
	m   *Map
	mu  sync.Mutex
	cond *sync.Cond

	ref  int
	init bool

	seekable   bool
	appendOnly bool

	head *Request
}

func newQueue(fd int32, m *Map) *Queue {
	q := &Queue{fd: fd, m: m}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// AddRefLocked increments the reference count. Caller must hold q's
// lock, as returned by Map.Lookup.
func (q *Queue) AddRefLocked() { q.ref++ }

// Unlock releases the lock Map.Lookup returned the Queue holding.
func (q *Queue) Unlock() { q.mu.Unlock() }

// FD returns the descriptor this Queue is keyed on.
func (q *Queue) FD() int32 { return q.fd }

// Unref releases one reference. If this was the last reference, the
// Queue is detached from its Map.
//
// Lock order in this package is always Map-write -> Queue; a tentative
// "last ref" here releases the Queue's own lock before taking the Map's
// write lock, then re-checks the count, since another submitter could
// have raced in and added a reference between the two locks.
func (q *Queue) Unref() {
	q.mu.Lock()
	if q.ref > 1 {
		q.ref--
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.m.mu.Lock()
	q.mu.Lock()
	if q.ref > 1 {
		q.ref--
		q.mu.Unlock()
		q.m.mu.Unlock()
		return
	}
	q.ref--
	q.m.remove(q.fd)
	q.m.fdCount.Add(-1)
	q.mu.Unlock()
	q.m.mu.Unlock()
}

// insertLocked adds r to the head of the list. Caller holds q.mu.
func (q *Queue) insertLocked(r *Request) {
	r.next = q.head
	r.prev = nil
	if q.head != nil {
		q.head.prev = r
	}
	q.head = r
}

// removeLocked unlinks r. Caller holds q.mu.
func (q *Queue) removeLocked(r *Request) {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		q.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.next, r.prev = nil, nil
}
