// Package aio provides POSIX aio_*-style asynchronous file I/O: queue a
// read, write, or sync against a file descriptor and be notified (by
// signal, callback, or by blocking in Wait) when it completes, without
// blocking the calling goroutine on the syscall itself.
//
// Every operation goes through a Cb (control block) describing what to
// do and how to be told about completion. A Cb can be in flight on at
// most one descriptor's request queue at a time; reusing one before its
// previous operation completes is a programming error, mirrored from
// aio_read(3)'s own contract.
package aio

import (
	"github.com/aioq/go-aio/internal/aiocb"
)

// Cb is the asynchronous-operation control block. See internal/aiocb
// for the full field and method documentation; it is re-exported here
// by type alias so callers never need to import an internal package.
type Cb = aiocb.Cb

// Notify selects how a Cb reports completion.
type Notify = aiocb.Notify

// NotifyNone requests no asynchronous notification.
type NotifyNone = aiocb.NotifyNone

// NotifySignal requests delivery of a realtime signal on completion.
type NotifySignal = aiocb.NotifySignal

// NotifyCallback requests invocation of a function on completion.
type NotifyCallback = aiocb.NotifyCallback

// NewReadCb builds a Cb that will read len(buf) bytes from fd at
// offset when submitted via Read.
func NewReadCb(fd int, buf []byte, offset int64) *Cb { return aiocb.NewRead(fd, buf, offset) }

// NewWriteCb builds a Cb that will write buf to fd at offset when
// submitted via Write.
func NewWriteCb(fd int, buf []byte, offset int64) *Cb { return aiocb.NewWrite(fd, buf, offset) }

// NewSyncCb builds a Cb describing an fsync/fdatasync against fd, for
// use with Sync. Its Buf and Offset are unused.
func NewSyncCb(fd int) *Cb { return aiocb.NewSync(fd) }

// CancelResult is the outcome of a Cancel call, mirroring POSIX
// aio_cancel(3)'s AIO_ALLDONE / AIO_CANCELED / AIO_NOTCANCELED trio.
type CancelResult int

const (
	// CancelAllDone reports that no matching request was outstanding.
	CancelAllDone CancelResult = iota
	// CancelCanceled reports that every matching request was canceled.
	CancelCanceled
	// CancelNotCanceled reports that at least one matching request had
	// already progressed far enough that it completed on its own.
	CancelNotCanceled
)

func (r CancelResult) String() string {
	switch r {
	case CancelAllDone:
		return "all done"
	case CancelCanceled:
		return "canceled"
	case CancelNotCanceled:
		return "not canceled"
	default:
		return "unknown"
	}
}
