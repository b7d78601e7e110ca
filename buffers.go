package aio

import "github.com/aioq/go-aio/internal/queue"

// GetBuffer returns a pooled buffer of at least size bytes, for callers
// submitting large, repeated reads or writes who want to avoid an
// allocation per Cb. Sizes below 128KB are served from the 128KB
// bucket; sizes above 1MB are allocated directly and not pooled. Pair
// every GetBuffer with a PutBuffer once the
// associated Cb has completed and its bytes have been consumed.
func GetBuffer(size uint32) []byte { return queue.GetBuffer(size) }

// PutBuffer returns a buffer obtained from GetBuffer to its pool. buf
// must not be used again afterward.
func PutBuffer(buf []byte) { queue.PutBuffer(buf) }
