package rtsignal

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"
)

func TestCancelSignalIsRealtime(t *testing.T) {
	if Cancel < unix.SIGRTMIN() || Cancel > unix.SIGRTMAX() {
		t.Fatalf("Cancel = %d, want a signal within [SIGRTMIN, SIGRTMAX]", Cancel)
	}
}

func TestSigInfoTSize(t *testing.T) {
	var info sigInfoT
	if sz := int(unsafe.Sizeof(info)); sz != 128 {
		t.Fatalf("sigInfoT size = %d, want 128", sz)
	}
}
