package core

// Stats is a snapshot of timer counters
type Stats struct {
	Ticks        int64  // Ticks since Init
	Sleepers     int    // Tasks currently queued
	PeakSleepers int64  // Most tasks ever queued at once
	Sleeps       uint64 // Tasks that went to sleep
	Wakeups      uint64 // Tasks woken by the dispatcher
	BusyWaits    uint64 // Calibrated busy-wait delays
	LoopsPerTick uint64 // Calibration constant, 0 before Calibrate
}

// Stats returns current timer statistics. It takes no locks and touches no
// interrupt state, so any goroutine may call it.
func (t *Timer) Stats() Stats {
	return Stats{
		Ticks:        t.clock.now(),
		Sleepers:     int(t.sleepers.Load()),
		PeakSleepers: t.peakSleepers.Load(),
		Sleeps:       t.sleeps.Load(),
		Wakeups:      t.wakeups.Load(),
		BusyWaits:    t.busyWaits.Load(),
		LoopsPerTick: t.loopsPerTick.Load(),
	}
}
