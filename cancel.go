package aio

import (
	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/queue"
)

// Cancel attempts to cancel outstanding operations on fd. If cb is
// non-nil, only the request owning cb is targeted; if cb is nil, every
// outstanding request on fd is targeted, matching aio_cancel(3)'s
// NULL-aiocbp broadcast form.
//
// If no Queue has ever been created for fd (nothing was ever submitted,
// or everything already completed and was unreferenced), Cancel reports
// CancelAllDone without error.
func Cancel(fd int, cb *Cb) (CancelResult, error) {
	if cb != nil && cb.Fd != fd {
		return CancelAllDone, NewError("Cancel", ErrInvalid, "cb.Fd does not match fd")
	}

	q, err := defaultMap.Lookup(int32(fd), false)
	if err != nil {
		return CancelAllDone, WrapErrno("Cancel", err.(unix.Errno))
	}
	if q == nil {
		return CancelAllDone, nil
	}
	q.AddRefLocked()
	q.Unlock()
	defer q.Unref()

	result := CancelResult(queue.Cancel(q, cb))
	observer.ObserveCancel(int(result))
	if logger != nil {
		logger.Debugf("aio cancel: fd=%d result=%s", fd, result)
	}
	return result, nil
}

// CloseFD cancels every outstanding request on fd and then closes it.
// Closing a descriptor out from under workers still reading or writing
// it is undefined per POSIX; this gives callers a safe, ordered way to
// retire a descriptor that may have aio requests in flight.
func CloseFD(fd int) error {
	if _, err := Cancel(fd, nil); err != nil {
		return err
	}
	return unix.Close(fd)
}
