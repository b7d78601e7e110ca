package queue

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aioq/go-aio/internal/aiocb"
)

func TestSpawnWriteThenRead(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "aio-worker-*")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m := NewMap()
	fd := int32(f.Fd())

	q, err := m.Lookup(fd, true)
	if err != nil {
		t.Fatal(err)
	}
	q.AddRefLocked()
	q.Unlock()

	wcb := aiocb.NewWrite(int(fd), []byte("hello"), 0)
	wcb.MarkInProgress()
	if err := Spawn(q, KindWrite, wcb, nil, nil); err != nil {
		t.Fatalf("Spawn(write) error: %v", err)
	}
	wcb.ErrWord().Wait(func(v int32) bool { return v != int32(unix.EINPROGRESS) })
	if got := wcb.Error(); got != 0 {
		t.Fatalf("write Error() = %d, want 0", got)
	}
	if got := wcb.Return(); got != 5 {
		t.Fatalf("write Return() = %d, want 5", got)
	}

	q2, err := m.Lookup(fd, true)
	if err != nil {
		t.Fatal(err)
	}
	q2.AddRefLocked()
	q2.Unlock()

	buf := make([]byte, 5)
	rcb := aiocb.NewRead(int(fd), buf, 0)
	rcb.MarkInProgress()
	if err := Spawn(q2, KindRead, rcb, nil, nil); err != nil {
		t.Fatalf("Spawn(read) error: %v", err)
	}
	rcb.ErrWord().Wait(func(v int32) bool { return v != int32(unix.EINPROGRESS) })
	if got := rcb.Error(); got != 0 {
		t.Fatalf("read Error() = %d, want 0", got)
	}
	if string(buf) != "hello" {
		t.Fatalf("read buffer = %q, want %q", buf, "hello")
	}
}

func TestCancelBlockedRead(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	defer r.Close()

	if err := unix.SetNonblock(int(r.Fd()), false); err != nil {
		t.Fatal(err)
	}

	m := NewMap()
	fd := int32(r.Fd())

	q, err := m.Lookup(fd, true)
	if err != nil {
		t.Fatal(err)
	}
	q.AddRefLocked()
	q.Unlock()

	buf := make([]byte, 16)
	cb := aiocb.NewRead(int(fd), buf, 0)
	cb.MarkInProgress()
	if err := Spawn(q, KindRead, cb, nil, nil); err != nil {
		t.Fatalf("Spawn(read) error: %v", err)
	}

	// Give the worker a moment to actually be blocked in read(2) before
	// cancelling it; there is no signal for "blocked in the syscall yet"
	// to wait on from the outside.
	time.Sleep(50 * time.Millisecond)

	result := Cancel(q, cb)
	if result != ResultCanceled {
		t.Fatalf("Cancel() = %v, want ResultCanceled", result)
	}

	cb.ErrWord().Wait(func(v int32) bool { return v != int32(unix.EINPROGRESS) })
	if got := cb.Error(); got != int32(unix.ECANCELED) {
		t.Fatalf("Error() after cancel = %d, want ECANCELED", got)
	}
}

func TestCancelAllDoneWhenNothingOutstanding(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "aio-worker-*")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m := NewMap()
	fd := int32(f.Fd())
	q, err := m.Lookup(fd, true)
	if err != nil {
		t.Fatal(err)
	}
	q.AddRefLocked()
	q.Unlock()

	if got := Cancel(q, nil); got != ResultAllDone {
		t.Fatalf("Cancel() on an idle queue = %v, want ResultAllDone", got)
	}
}
