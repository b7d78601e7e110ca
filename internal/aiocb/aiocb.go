// Package aiocb defines the control block shared between a submitter
// and the worker goroutine serving it. It lives under internal so the
// root aio package can re-export it by type alias without creating an
// import cycle with internal/queue, which must mutate a Cb's result
// fields from the worker's completion path.
package aiocb

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/futex"
)

// Opcode identifies the kind of operation a Cb describes.
type Opcode int32

const (
	OpRead Opcode = iota
	OpWrite
	OpNop
)

// SyncMode selects between fsync and fdatasync semantics for Sync.
type SyncMode int

const (
	SyncFsync SyncMode = iota
	SyncFdatasync
)

// Notify is the completion-notification descriptor attached to a Cb.
// Exactly one of NotifyNone, NotifySignal, or NotifyCallback should be
// assigned; the zero value behaves as NotifyNone.
type Notify interface {
	isNotify()
}

// NotifyNone requests no asynchronous notification; the caller polls
// Error()/Return() or calls Wait.
type NotifyNone struct{}

func (NotifyNone) isNotify() {}

// NotifySignal requests delivery of a realtime signal carrying Value on
// completion.
type NotifySignal struct {
	Signo int
	Value int
}

func (NotifySignal) isNotify() {}

// NotifyCallback requests invocation of Func(Value) from the worker's
// completion path. Func must not block and must not call back into this
// package's submission entry points for the same descriptor while
// holding any lock of its own.
type NotifyCallback struct {
	Func  func(value int)
	Value int
}

func (NotifyCallback) isNotify() {}

// Cb is the asynchronous-operation control block (spec.md's CB record).
// Fd, Buf, Offset, Priority and Notify are set by the submitter before
// the call and must not be mutated afterward; ret and err are owned by
// the worker until publication.
type Cb struct {
	Fd       int
	Buf      []byte
	Offset   int64
	Priority int
	Notify   Notify

	ret atomic.Int64
	err *futex.Word // EINPROGRESS until the worker publishes a final value
}

func newCb(fd int, buf []byte, offset int64) *Cb {
	return &Cb{
		Fd:     fd,
		Buf:    buf,
		Offset: offset,
		Notify: NotifyNone{},
		err:    futex.New(int32(unix.EINPROGRESS)),
	}
}

// NewRead builds a Cb describing a read of len(buf) bytes at offset.
func NewRead(fd int, buf []byte, offset int64) *Cb { return newCb(fd, buf, offset) }

// NewWrite builds a Cb describing a write of buf at offset.
func NewWrite(fd int, buf []byte, offset int64) *Cb { return newCb(fd, buf, offset) }

// NewSync builds a Cb describing an fsync/fdatasync on fd.
func NewSync(fd int) *Cb { return newCb(fd, nil, 0) }

// Error returns the operation's final errno, or EINPROGRESS while still
// in flight. Only the low 31 bits of the status word are returned; the
// top bit some C implementations use to flag a forced completion is
// masked off.
func (cb *Cb) Error() int32 { return cb.err.Load() & 0x7fffffff }

// Return returns the operation's result (byte count, or -1 on error).
func (cb *Cb) Return() int64 { return cb.ret.Load() }

// ErrWord exposes the underlying futex word so callers (Wait, Cancel)
// can block on a transition away from EINPROGRESS without polling.
func (cb *Cb) ErrWord() *futex.Word { return cb.err }

// MarkInProgress resets the Cb to EINPROGRESS. Called by the submitter
// immediately before handing the Cb to a worker.
func (cb *Cb) MarkInProgress() { cb.err.Swap(int32(unix.EINPROGRESS)) }

// Publish stores the final result and error, waking any goroutine
// blocked in Wait or Cancel. Returns whether this call performed the
// ordinary EINPROGRESS -> final transition (false would mean the Cb was
// already published, which should not happen for a single request).
func (cb *Cb) Publish(ret int64, errno int32) bool {
	cb.ret.Store(ret)
	old := cb.err.Swap(errno)
	return old == int32(unix.EINPROGRESS)
}

// CancelResult is the outcome of a Cancel call.
type CancelResult int

const (
	// AllDone reports that no matching request was still outstanding.
	AllDone CancelResult = iota
	// Canceled reports that every matching request was canceled.
	Canceled
	// NotCanceled reports that at least one matching request could not
	// be canceled (it may complete normally).
	NotCanceled
)
