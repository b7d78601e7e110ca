// Package rtsignal delivers and masks the real-time signal used to
// interrupt a worker's blocked syscall during cancellation, and queues
// the SI_ASYNCIO-coded completion signal used for signal notification.
//
// Go goroutines cannot be forcibly unwound the way a pthread can be
// cancelled. Instead a worker pins itself to one OS thread with
// runtime.LockOSThread and this package targets that exact thread with
// tgkill(2), so the pending blocking syscall returns EINTR without
// disturbing any other goroutine.
package rtsignal

import (
	"os"
	"os/signal"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/constants"
)

// Cancel is the signal tgkill delivers to interrupt a worker's blocked
// syscall. It sits in the application's private real-time signal range
// so it cannot collide with a signal the caller already handles.
var Cancel = unix.Signal(unix.SIGRTMIN() + constants.CancelSignalOffset)

// siAsyncIO mirrors POSIX SI_ASYNCIO for the completion-notification
// siginfo code.
const siAsyncIO = -4

var registerOnce sync.Once

// register arranges for the Go runtime to treat Cancel as "os/signal
// handled" so delivery interrupts a blocked syscall instead of running
// the signal's default disposition (which for most real-time signals
// is process termination).
func register() {
	registerOnce.Do(func() {
		notify := make(chan os.Signal, 64)
		signal.Notify(notify, Cancel)
		go func() {
			for range notify {
				// Drained here only; by the time this goroutine observes
				// delivery the targeted thread's blocking syscall has
				// already returned EINTR, which is the only effect we need.
			}
		}()
	})
}

// Interrupt sends Cancel to the OS thread tid within this process,
// causing any syscall currently blocked on that thread to return
// EINTR. tid is the value returned by unix.Gettid() on the worker's
// locked OS thread.
func Interrupt(tid int) error {
	register()
	return unix.Tgkill(unix.Getpid(), tid, Cancel)
}

// sigInfoT mirrors the x86_64 Linux ABI layout of siginfo_t's _sifields._rt
// member (si_pid at offset 16, si_uid at offset 20, si_value at offset
// 24, for a total struct size of 128 bytes). go-aio targets linux/amd64,
// matching the teacher's own assumption of running against a Linux
// kernel facility on that architecture.
type sigInfoT struct {
	signo int32
	errno int32
	code  int32
	_     int32 // alignment pad before the _rt union member
	pid   int32
	uid   uint32
	value int32
	_     [128 - 28]byte
}

// Queue delivers signo to pid with SI_ASYNCIO semantics and the given
// payload value, realizing the spec's "realtime signal with a queued
// value" notification path via a raw rt_sigqueueinfo(2) call — mirroring
// the teacher's own direct-syscall style for facilities golang.org/x/sys
// does not wrap.
func Queue(pid int, signo unix.Signal, value int) error {
	var info sigInfoT
	info.signo = int32(signo)
	info.code = siAsyncIO
	info.pid = int32(unix.Getpid())
	info.uid = uint32(unix.Getuid())
	info.value = int32(value)

	_, _, errno := unix.Syscall6(unix.SYS_RT_SIGQUEUEINFO,
		uintptr(pid), uintptr(signo), uintptr(unsafe.Pointer(&info)), 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// WithAllBlocked locks the calling goroutine to its OS thread, blocks
// every signal on that thread for the duration of fn, and restores the
// previous mask and thread affinity afterward. Component A and F of the
// design call for masking signals around structural mutations; here
// that buys real protection against any ordinary POSIX signal landing
// on this specific thread mid-mutation; it is not what prevents a
// worker's cancellation signal from reentering Go code, since tgkill
// targets one exact thread and Go's runtime traps the signal before any
// user-level handler code would run.
func WithAllBlocked(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	old, err := blockAllSignals()
	if err == nil {
		defer restoreSignals(old)
	}
	fn()
}

func blockAllSignals() (*unix.Sigset_t, error) {
	var old, full unix.Sigset_t
	for i := range full.Val {
		full.Val[i] = ^uint64(0)
	}
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &full, &old); err != nil {
		return nil, err
	}
	return &old, nil
}

func restoreSignals(old *unix.Sigset_t) {
	if old == nil {
		return
	}
	_ = unix.PthreadSigmask(unix.SIG_SETMASK, old, nil)
}
