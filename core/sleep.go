package core

import (
	"math"

	"go.uber.org/zap"
)

// Sleep suspends the calling task for approximately ticks timer ticks.
// Interrupts must be on. A non-positive count returns at once. A count that
// would run the deadline past the largest tick sleeps until that tick.
func (t *Timer) Sleep(ticks int64) {
	if ticks <= 0 {
		return
	}
	t.requireState(stateReady, "sleep")

	start := t.Ticks()
	wakeTick := int64(math.MaxInt64)
	if ticks <= math.MaxInt64-start {
		wakeTick = start + ticks
	}
	t.sleepUntil(t.sched.Current(), wakeTick)
}

// SleepUntil suspends the calling task until the tick count reaches
// wakeTick. A deadline that has already passed returns at once.
func (t *Timer) SleepUntil(wakeTick int64) {
	if wakeTick <= t.Ticks() {
		return
	}
	t.requireState(stateReady, "sleep")
	t.sleepUntil(t.sched.Current(), wakeTick)
}

// sleepUntil queues task, which must be the caller, and blocks it. The queue
// lock is only held for the insertion; blocking happens after it is
// released, with interrupts back on.
func (t *Timer) sleepUntil(task Task, wakeTick int64) {
	if t.intr.Level() != IntrOn {
		t.halt("sleep with interrupts disabled")
	}

	old := t.queue.lock.LockIRQSave(t.intr)
	e := t.queue.alloc()
	if e == nil {
		size := len(t.queue.pool)
		t.queue.lock.UnlockIRQRestore(t.intr, old)
		t.halt("sleep queue exhausted (%d entries)", size)
	}
	e.task = task
	e.wakeTick = wakeTick
	t.queue.insert(e)
	depth := int64(t.queue.len)
	t.sleepers.Store(depth)
	t.queue.lock.UnlockIRQRestore(t.intr, old)

	t.sleeps.Add(1)
	for peak := t.peakSleepers.Load(); depth > peak; peak = t.peakSleepers.Load() {
		if t.peakSleepers.CompareAndSwap(peak, depth) {
			break
		}
	}
	t.trace(EvtSleep, task.ID(), wakeTick, depth)
	t.log.Debug("task sleeping",
		zap.String("task", task.Name()),
		zap.Int64("wake_tick", wakeTick),
		zap.Int64("depth", depth))

	t.sched.Block(task)
}

// DrainDue wakes every sleeping task whose deadline is at or before now and
// returns how many were woken. The timer interrupt does this on every tick;
// the exported form is for task context.
func (t *Timer) DrainDue(now int64) int {
	old := t.queue.lock.LockIRQSave(t.intr)
	n := t.wakeDueLocked(now)
	t.queue.lock.UnlockIRQRestore(t.intr, old)
	return n
}

// drainDue is the interrupt-context dispatcher: bounded by the number of
// due entries, no allocation, no blocking.
func (t *Timer) drainDue(now int64) int {
	t.queue.lock.Lock()
	n := t.wakeDueLocked(now)
	t.queue.lock.Unlock()
	return n
}

// wakeDueLocked pops the due prefix of the queue. Caller holds the queue
// lock with interrupts off, so the ring lock is taken plainly.
func (t *Timer) wakeDueLocked(now int64) int {
	n := 0
	for e := t.queue.popDue(now); e != nil; e = t.queue.popDue(now) {
		task, wakeTick := e.task, e.wakeTick
		t.queue.release(e)
		t.sched.Unblock(task)

		t.ring.lock.Lock()
		t.ring.record(EvtWake, task.ID(), now, wakeTick, now-wakeTick)
		t.ring.lock.Unlock()
		n++
	}
	if n > 0 {
		t.sleepers.Store(int64(t.queue.len))
		t.wakeups.Add(uint64(n))
	}
	return n
}

// SleepingTicks lists the deadlines currently queued, front to back.
func (t *Timer) SleepingTicks() []int64 {
	old := t.queue.lock.LockIRQSave(t.intr)
	defer t.queue.lock.UnlockIRQRestore(t.intr, old)
	return t.queue.wakeTicks()
}
