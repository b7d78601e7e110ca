package aio

// PrepareFork must be called immediately before fork(2) (typically from
// a syscall.ForkLock-style hook, or just before exec.Cmd-adjacent raw
// fork usage) so no descriptor-table mutation races the fork. It must
// be paired with exactly one of ForkParent or ForkChild afterward.
func PrepareFork() { defaultMap.PreFork() }

// ForkParent releases the lock PrepareFork acquired, resuming normal
// operation in the parent process.
func ForkParent() { defaultMap.PostForkParent() }

// ForkChild resets the library's request-queue state for a freshly
// forked child: every Queue from the parent is discarded rather than
// inherited, since the worker goroutines that owned them did not
// survive the fork. A child that wants asynchronous I/O must submit
// fresh requests.
func ForkChild() { defaultMap.PostForkChild() }
