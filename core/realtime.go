package core

// Real-time durations are num/denom seconds. The sleep variants yield the
// CPU for anything a tick or longer; the delay variants always spin and
// need not have interrupts on.

// MSleep sleeps for approximately ms milliseconds. Interrupts must be on.
func (t *Timer) MSleep(ms int64) { t.realTimeSleep(ms, 1000) }

// USleep sleeps for approximately us microseconds. Interrupts must be on.
func (t *Timer) USleep(us int64) { t.realTimeSleep(us, 1000*1000) }

// NSleep sleeps for approximately ns nanoseconds. Interrupts must be on.
func (t *Timer) NSleep(ns int64) { t.realTimeSleep(ns, 1000*1000*1000) }

// MDelay busy-waits for approximately ms milliseconds.
//
// Busy waiting wastes CPU cycles, and busy waiting with interrupts off for
// a tick or longer loses timer ticks. Use MSleep when interrupts are on.
func (t *Timer) MDelay(ms int64) { t.realTimeDelay(ms, 1000) }

// UDelay busy-waits for approximately us microseconds.
func (t *Timer) UDelay(us int64) { t.realTimeDelay(us, 1000*1000) }

// NDelay busy-waits for approximately ns nanoseconds.
func (t *Timer) NDelay(ns int64) { t.realTimeDelay(ns, 1000*1000*1000) }

// ticksFor converts num/denom seconds to whole timer ticks, rounding down.
//
//	   (num / denom) s
//	---------------------- = num * TimerFreq / denom ticks
//	1 s / TimerFreq ticks
//
// Whole seconds and the remainder are scaled apart so that num*TimerFreq
// cannot overflow.
func ticksFor(num int64, denom int32) int64 {
	d := int64(denom)
	return num/d*TimerFreq + num%d*TimerFreq/d
}

// delayLoops scales loopsPerTick to num/denom seconds. Both the loop count
// and denom are divided by 1000 before multiplying, which keeps the product
// inside 64 bits for any sub-tick duration while keeping millisecond
// precision. denom must be a multiple of 1000.
func delayLoops(loopsPerTick uint64, num int64, denom int32) int64 {
	return int64(loopsPerTick) * num / 1000 * TimerFreq / int64(denom/1000)
}

// realTimeSleep sleeps for approximately num/denom seconds.
func (t *Timer) realTimeSleep(num int64, denom int32) {
	if num <= 0 {
		return
	}
	if t.intr.Level() != IntrOn {
		t.halt("real-time sleep with interrupts disabled")
	}

	ticks := ticksFor(num, denom)
	if ticks > 0 {
		// At least one full tick: sleep, yielding the CPU
		t.Sleep(ticks)
		return
	}
	// Sub-tick: spin for more accurate timing
	t.realTimeDelay(num, denom)
}

// realTimeDelay busy-waits for approximately num/denom seconds.
func (t *Timer) realTimeDelay(num int64, denom int32) {
	if denom%1000 != 0 {
		t.halt("real-time denominator %d is not a multiple of 1000", denom)
	}
	if num <= 0 {
		return
	}
	t.requireState(stateCalibrated, "busy-wait delay")

	loops := delayLoops(t.loopsPerTick.Load(), num, denom)
	t.busyWaits.Add(1)
	t.trace(EvtDelay, 0, loops, 0)
	busyWait(loops)
}
