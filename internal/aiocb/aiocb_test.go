package aiocb

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestNewReadStartsInProgress(t *testing.T) {
	cb := NewRead(3, make([]byte, 16), 0)
	if got := cb.Error(); got != int32(unix.EINPROGRESS) {
		t.Fatalf("Error() = %d, want EINPROGRESS", got)
	}
}

func TestPublishTransitionsFromInProgress(t *testing.T) {
	cb := NewWrite(3, []byte("hello"), 0)
	if ok := cb.Publish(5, 0); !ok {
		t.Fatal("Publish reported no EINPROGRESS transition on a fresh Cb")
	}
	if got := cb.Return(); got != 5 {
		t.Fatalf("Return() = %d, want 5", got)
	}
	if got := cb.Error(); got != 0 {
		t.Fatalf("Error() = %d, want 0", got)
	}
}

func TestMarkInProgressResets(t *testing.T) {
	cb := NewSync(3)
	cb.Publish(0, 0)
	cb.MarkInProgress()
	if got := cb.Error(); got != int32(unix.EINPROGRESS) {
		t.Fatalf("Error() after MarkInProgress = %d, want EINPROGRESS", got)
	}
}
