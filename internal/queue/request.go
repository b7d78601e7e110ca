package queue

import (
	"github.com/aioq/go-aio/internal/aiocb"
	"github.com/aioq/go-aio/internal/futex"
)

// Kind identifies which operation a Request is serving.
type Kind int32

const (
	KindRead Kind = iota
	KindWrite
	KindFsync
	KindFdatasync
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindFsync:
		return "fsync"
	case KindFdatasync:
		return "fdatasync"
	default:
		return "unknown"
	}
}

// running values for Request.running.
const (
	stateRunning       int32 = 1
	stateExited        int32 = 0
	stateCancelPending int32 = -1
)

// Request is the per-in-flight-operation record (Component C), owned by
// the worker goroutine serving it. Only running and the list pointers
// (guarded by the owning Queue's mutex) are touched by other
// goroutines; ret, err and cb are owner-private until the running ->
// exited publication in the worker's cleanup step.
type Request struct {
	kind    Kind
	cb      *aiocb.Cb
	running *futex.Word // 1 running, 0 exited, -1 cancel pending

	ret int64
	err int32
	tid int // owner OS thread id, target of tgkill on cancel

	q    *Queue
	next *Request
	prev *Request
}

func newRequest(k Kind, q *Queue, cb *aiocb.Cb) *Request {
	return &Request{kind: k, q: q, cb: cb, running: futex.New(stateRunning)}
}

// blockedByEarlierWriteLocked reports whether an older entry (reachable
// via next, since the list is head-inserted) is still an active WRITE.
// Caller holds q.mu. Used by FSYNC/FDATASYNC and append-mode WRITE to
// implement the ordering guarantee against concurrently outstanding
// writes on the same descriptor.
func (r *Request) blockedByEarlierWriteLocked() bool {
	for p := r.next; p != nil; p = p.next {
		if p.kind == KindWrite && p.running.Load() == stateRunning {
			return true
		}
	}
	return false
}
