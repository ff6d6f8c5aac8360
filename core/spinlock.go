package core

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield bounds the busy spin before the waiter yields its OS
// thread to whoever holds the lock.
const spinsBeforeYield = 64

// SpinLock is a mutual exclusion lock that never sleeps, so it can be taken
// from interrupt context. Task context must take it through LockIRQSave so
// that the timer interrupt cannot arrive on the same processor while the
// lock is held. Nothing that blocks may run while it is held.
type SpinLock struct {
	state atomic.Uint32
}

// Lock spins until the lock is acquired. Use directly only from interrupt
// context, where interrupts are already disabled.
func (l *SpinLock) Lock() {
	for spins := 0; !l.state.CompareAndSwap(0, 1); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	if l.state.Swap(0) == 0 {
		panic("core: unlock of unlocked SpinLock")
	}
}

// LockIRQSave disables interrupts on ic and then acquires the lock.
// The returned level must be handed back to UnlockIRQRestore.
func (l *SpinLock) LockIRQSave(ic InterruptController) Level {
	old := ic.Disable()
	l.Lock()
	return old
}

// UnlockIRQRestore releases the lock and restores the interrupt level.
func (l *SpinLock) UnlockIRQRestore(ic InterruptController, old Level) {
	l.Unlock()
	ic.Restore(old)
}
