package queue

import (
	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/aiocb"
	"github.com/aioq/go-aio/internal/rtsignal"
)

// CancelResult mirrors aiocb.CancelResult; queue stays free of a
// dependency back onto the root aio package, so it defines its own copy
// and callers translate.
type CancelResult int

const (
	ResultAllDone CancelResult = iota
	ResultCanceled
	ResultNotCanceled
)

// Cancel targets every Request on q matching cb (every Request on q if
// cb is nil), forcing each through the worker's cleanup epilogue and
// waiting for publication before returning, per POSIX aio_cancel
// semantics: ALLDONE if nothing was outstanding, CANCELED if every
// targeted request was actually canceled, NOTCANCELED if at least one
// had already progressed past the point cancellation could catch it.
func Cancel(q *Queue, match *aiocb.Cb) CancelResult {
	q.mu.Lock()
	var targets []*Request
	for r := q.head; r != nil; r = r.next {
		if match == nil || r.cb == match {
			targets = append(targets, r)
		}
	}
	q.mu.Unlock()

	if len(targets) == 0 {
		return ResultAllDone
	}

	anyCanceled := false
	anyRaced := false // cancel-pending was set, but the syscall returned before noticing
	for _, r := range targets {
		if !r.running.CompareAndSwap(stateRunning, stateCancelPending) {
			// Already past stateRunning by the time we CAS'd: it had
			// already completed (or another canceller got there first),
			// so this target contributes nothing either way.
			continue
		}
		_ = rtsignal.Interrupt(r.tid)
		r.running.Wait(func(v int32) bool { return v == stateExited })
		if r.err == int32(unix.ECANCELED) {
			anyCanceled = true
		} else {
			anyRaced = true
		}
	}

	switch {
	case anyRaced:
		return ResultNotCanceled
	case anyCanceled:
		return ResultCanceled
	default:
		return ResultAllDone
	}
}
