package aio

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/aiocb"
	"github.com/aioq/go-aio/internal/interfaces"
	"github.com/aioq/go-aio/internal/queue"
)

// defaultMap is the process-wide descriptor -> request-queue table that
// every package-level Read/Write/Sync/Cancel call against a Cb goes
// through, mirroring glibc's single process-wide aio bookkeeping. There
// is no exported way to build a second table: internal/queue cannot be
// imported from outside this module, so every caller shares this one.
var defaultMap = queue.NewMap()

// Logger is the debug-tracing sink Submit and Cancel calls log through.
type Logger = interfaces.Logger

var (
	observer interfaces.Observer = NoOpObserver{}
	logger   interfaces.Logger
)

// SetObserver installs the Observer every subsequent Submit/Cancel call
// reports completions and outcomes through. Passing nil restores the
// no-op default. Not safe to call concurrently with in-flight requests.
func SetObserver(o Observer) {
	if o == nil {
		o = NoOpObserver{}
	}
	observer = o
	defaultMap.Observer = o
}

// SetLogger installs the Logger used for per-request debug tracing.
// Passing nil disables logging. Not safe to call concurrently with
// in-flight requests.
func SetLogger(l Logger) {
	logger = l
	defaultMap.Logger = l
}

// Read queues an asynchronous read. cb must have been built by
// NewReadCb (or have Buf/Offset/Fd set equivalently) and must not be
// reused until its operation completes.
func Read(cb *Cb) error { return submit(cb, queue.KindRead) }

// Write queues an asynchronous write.
func Write(cb *Cb) error { return submit(cb, queue.KindWrite) }

// Sync queues an fsync (mode == SyncFsync) or fdatasync (mode ==
// SyncFdatasync) against cb.Fd. cb's Buf and Offset are ignored.
func Sync(mode SyncMode, cb *Cb) error {
	var k queue.Kind
	switch mode {
	case SyncFsync:
		k = queue.KindFsync
	case SyncFdatasync:
		k = queue.KindFdatasync
	default:
		return NewError("Sync", ErrInvalid, "unrecognized SyncMode")
	}
	return submit(cb, k)
}

// SyncMode selects between fsync and fdatasync semantics for Sync.
type SyncMode = aiocb.SyncMode

const (
	SyncFsync     = aiocb.SyncFsync
	SyncFdatasync = aiocb.SyncFdatasync
)

func submit(cb *Cb, k queue.Kind) error {
	q, err := defaultMap.Lookup(int32(cb.Fd), true)
	if err != nil {
		cb.Publish(-1, int32(err.(unix.Errno)))
		return WrapErrno(opName(k), err.(unix.Errno))
	}
	q.AddRefLocked()
	q.Unlock()

	cb.MarkInProgress()
	if err := queue.Spawn(q, k, cb, observer, logger); err != nil {
		q.Unref()
		cb.Publish(-1, int32(err.(unix.Errno)))
		return WrapErrno(opName(k), err.(unix.Errno))
	}
	return nil
}

func opName(k queue.Kind) string {
	switch k {
	case queue.KindRead:
		return "Read"
	case queue.KindWrite:
		return "Write"
	case queue.KindFsync, queue.KindFdatasync:
		return "Sync"
	default:
		return "Submit"
	}
}

// Wait blocks until cb's operation completes, or returns ErrIO once
// timeout elapses (timeout <= 0 means wait indefinitely). spec.md's
// core scopes timed waiting out of the worker/cancel protocol itself
// ("Timeouts are not implemented at this layer"); this is a caller-side
// convenience built on top, in the spirit of aio_suspend(3)'s own
// separately-timed-out semantics, not a change to that protocol.
func Wait(cb *Cb, timeout time.Duration) error {
	done := func() bool { return cb.Error() != int32(unix.EINPROGRESS) }
	if timeout <= 0 {
		cb.ErrWord().Wait(func(v int32) bool { return v != int32(unix.EINPROGRESS) })
		return nil
	}
	if done() {
		return nil
	}
	finished := make(chan struct{})
	go func() {
		cb.ErrWord().Wait(func(v int32) bool { return v != int32(unix.EINPROGRESS) })
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return WrapErrno("Wait", unix.ETIMEDOUT)
	}
}
