package queue

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/aiocb"
	"github.com/aioq/go-aio/internal/constants"
	"github.com/aioq/go-aio/internal/interfaces"
	"github.com/aioq/go-aio/internal/rtsignal"
)

var slots = make(chan struct{}, constants.MaxInFlightWorkers)

func acquireSlot() bool {
	select {
	case slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func releaseSlot() { <-slots }

// Spawn starts a worker goroutine for cb on q and blocks until the
// registration handshake completes. On success the worker owns cb and
// r from this point on; on failure (the process-wide worker-slot pool
// is exhausted) it returns EAGAIN and does not touch q or cb.
func Spawn(q *Queue, k Kind, cb *aiocb.Cb, obs interfaces.Observer, log interfaces.Logger) error {
	if !acquireSlot() {
		return unix.EAGAIN
	}
	registered := make(chan struct{})
	go runWorker(q, k, cb, registered, obs, log)
	<-registered
	return nil
}

func runWorker(q *Queue, k Kind, cb *aiocb.Cb, registered chan<- struct{}, obs interfaces.Observer, log interfaces.Logger) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer releaseSlot()

	r := newRequest(k, q, cb)
	r.tid = unix.Gettid()

	// Registration handshake: link the request and probe descriptor
	// facts once per queue, all under the same critical section so the
	// submitter's Spawn call cannot return before the worker is
	// reachable from q.head for cancellation purposes.
	q.mu.Lock()
	close(registered)
	q.insertLocked(r)
	if !q.init {
		probeDescriptorLocked(q, cb.Fd)
	}
	q.mu.Unlock()

	var ret int64
	var errno int32
	start := time.Now()
	defer func() {
		latencyNs := uint64(time.Since(start).Nanoseconds())
		finish(q, r, cb, ret, errno, latencyNs, obs, log)
	}()

	if needsSequencing(k, q.appendOnly) {
		waitSequencingTurn(q, r)
	}

	if r.running.Load() == stateCancelPending {
		ret, errno = -1, int32(unix.ECANCELED)
		return
	}

	ret, errno = performIO(k, q, cb, r)
}

func probeDescriptorLocked(q *Queue, fd int) {
	_, err := unix.Seek(fd, 0, unix.SEEK_CUR)
	q.seekable = err == nil

	appendFlag := false
	if flags, ferr := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0); ferr == nil {
		appendFlag = flags&unix.O_APPEND != 0
	}
	q.appendOnly = appendFlag || !q.seekable
	q.init = true
}

// needsSequencing reports whether k must wait for older outstanding
// writes to retire before running: every FSYNC/FDATASYNC must, and a
// WRITE must when the descriptor is append-only (O_APPEND or
// unseekable), since the kernel's own append ordering only holds within
// a single syscall, not across our concurrent workers.
func needsSequencing(k Kind, appendOnly bool) bool {
	switch k {
	case KindWrite:
		return appendOnly
	case KindFsync, KindFdatasync:
		return true
	default:
		return false
	}
}

func waitSequencingTurn(q *Queue, r *Request) {
	q.mu.Lock()
	for r.blockedByEarlierWriteLocked() && r.running.Load() != stateCancelPending {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func performIO(k Kind, q *Queue, cb *aiocb.Cb, r *Request) (int64, int32) {
	var n int
	var err error

	switch k {
	case KindWrite:
		if q.appendOnly {
			n, err = retryEINTR(r, func() (int, error) { return unix.Write(cb.Fd, cb.Buf) })
		} else {
			n, err = retryEINTR(r, func() (int, error) { return unix.Pwrite(cb.Fd, cb.Buf, cb.Offset) })
		}
	case KindRead:
		if q.seekable {
			n, err = retryEINTR(r, func() (int, error) { return unix.Pread(cb.Fd, cb.Buf, cb.Offset) })
		} else {
			n, err = retryEINTR(r, func() (int, error) { return unix.Read(cb.Fd, cb.Buf) })
		}
	case KindFsync:
		err = retryEINTRVoid(r, func() error { return unix.Fsync(cb.Fd) })
	case KindFdatasync:
		err = retryEINTRVoid(r, func() error { return unix.Fdatasync(cb.Fd) })
	}

	if err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return -1, int32(errno)
		}
		return -1, int32(unix.EIO)
	}
	return int64(n), 0
}

// retryEINTR retries a syscall interrupted by an unrelated signal, but
// treats an EINTR observed while this request is cancel-pending as the
// forced-unwind point: the syscall's in-progress attempt is abandoned
// and the request completes with ECANCELED.
func retryEINTR(r *Request, fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if err == unix.EINTR {
			if r.running.Load() == stateCancelPending {
				return -1, unix.ECANCELED
			}
			continue
		}
		return n, err
	}
}

func retryEINTRVoid(r *Request, fn func() error) error {
	for {
		err := fn()
		if err == unix.EINTR {
			if r.running.Load() == stateCancelPending {
				return unix.ECANCELED
			}
			continue
		}
		return err
	}
}

// finish is the worker's cleanup epilogue (Component D step 6):
// publish the result, wake every waiter that could be blocked on it,
// unlink the request, release the queue reference, deliver the
// completion notification, and record telemetry.
func finish(q *Queue, r *Request, cb *aiocb.Cb, ret int64, errno int32, latencyNs uint64, obs interfaces.Observer, log interfaces.Logger) {
	r.ret = ret
	r.err = errno

	r.running.Swap(stateExited)
	cb.Publish(ret, errno)
	q.m.WakeWord.Bump()

	q.mu.Lock()
	q.removeLocked(r)
	q.cond.Broadcast()
	q.mu.Unlock()
	q.Unref()

	deliverNotify(cb)

	if obs != nil {
		observe(obs, r.kind, byteCount(ret), latencyNs, errno == 0)
	}
	if log != nil {
		log.Debugf("aio request done: fd=%d kind=%s ret=%d err=%d", cb.Fd, r.kind, ret, errno)
	}
}

func byteCount(ret int64) uint64 {
	if ret < 0 {
		return 0
	}
	return uint64(ret)
}

func observe(obs interfaces.Observer, k Kind, bytes uint64, latencyNs uint64, ok bool) {
	switch k {
	case KindRead:
		obs.ObserveRead(bytes, latencyNs, ok)
	case KindWrite:
		obs.ObserveWrite(bytes, latencyNs, ok)
	case KindFsync, KindFdatasync:
		obs.ObserveSync(latencyNs, ok)
	}
}

func deliverNotify(cb *aiocb.Cb) {
	switch n := cb.Notify.(type) {
	case aiocb.NotifySignal:
		_ = rtsignal.Queue(unix.Getpid(), unix.Signal(n.Signo), n.Value)
	case aiocb.NotifyCallback:
		if n.Func != nil {
			n.Func(n.Value)
		}
	}
}
