package constants

// Worker pool limits.
const (
	// MaxInFlightWorkers bounds the number of concurrently running
	// workers process-wide. Each worker pins an OS thread for its
	// lifetime (runtime.LockOSThread), so this also bounds OS-thread
	// growth under a submission flood and gives the spec's
	// resource-exhaustion-at-worker-creation behavior a genuine cause in
	// the goroutine model, where spawning a goroutine itself cannot
	// fail the way pthread_create can.
	MaxInFlightWorkers = 4096

	// CancelSignalOffset selects the real-time signal, relative to
	// SIGRTMIN, used to interrupt a worker's blocked syscall on cancel.
	CancelSignalOffset = 1
)

// Descriptor-map trie shape (internal/queue's Component A). The top
// level splits the positive 32-bit fd range in half; the remaining
// levels fan out by 8 or 14 bits so the four levels together cover
// every fd a process can hold.
const (
	MapLevel0Bits = 1
	MapLevel1Bits = 8
	MapLevel2Bits = 8
	MapLevel3Bits = 14
)