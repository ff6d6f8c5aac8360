package core

import (
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
)

// TimerFreq is the number of timer interrupts per second.
const TimerFreq = 100

// The 8254 cannot divide its input clock down below 19 Hz, and rates above
// 1 kHz spend too much time in the interrupt handler. Either bound failing
// is a constant overflow at compile time.
const (
	_ = uint(TimerFreq - 19)
	_ = uint(1000 - TimerFreq)
)

// 8254 programming
const (
	TimerVector = 0x20 // External interrupt vector of PIT channel 0
	pitChannel  = 0
	pitMode     = 2 // Rate generator
)

// DefaultMaxSleepers is the default size of the sleep entry pool
const DefaultMaxSleepers = 64

// Lifecycle states. There is no path back to an earlier state.
const (
	stateNew uint32 = iota
	stateReady
	stateCalibrating
	stateCalibrated
)

// Timer turns the periodic timer interrupt into a tick count, wakes
// sleeping tasks when their deadline passes and provides calibrated
// busy-wait delays.
//
// Initialization order is New, Init, enable interrupts, Calibrate. Sleeps of
// a tick or longer are allowed after Init; sub-tick delays need Calibrate.
type Timer struct {
	log          *zap.Logger
	debugPrintln DebugWriter
	sched        Scheduler
	intr         InterruptController
	chip         TimerChip

	state        atomic.Uint32
	clock        tickClock
	queue        sleepQueue
	ring         timingRing
	loopsPerTick atomic.Uint64

	// Statistics
	sleeps       atomic.Uint64
	wakeups      atomic.Uint64
	busyWaits    atomic.Uint64
	sleepers     atomic.Int64 // Mirrors queue.len for lock-free readers
	peakSleepers atomic.Int64
}

// Option configures a Timer
type Option func(*Timer)

// WithLogger sets the structured logger
func WithLogger(log *zap.Logger) Option {
	return func(t *Timer) {
		if log != nil {
			t.log = log
		}
	}
}

// WithDebugWriter sets the console output used for boot messages and dumps
func WithDebugWriter(w DebugWriter) Option {
	return func(t *Timer) {
		t.debugPrintln = w
	}
}

// WithMaxSleepers sets how many tasks may sleep at once
func WithMaxSleepers(n int) Option {
	return func(t *Timer) {
		if n > 0 {
			t.queue.init(n)
		}
	}
}

// New creates a timer bound to its scheduler, interrupt controller and
// timer chip. The timer does nothing until Init.
func New(sched Scheduler, intr InterruptController, chip TimerChip, opts ...Option) *Timer {
	t := &Timer{
		log:          zap.NewNop(),
		debugPrintln: func(string) {},
		sched:        sched,
		intr:         intr,
		chip:         chip,
	}
	t.queue.init(DefaultMaxSleepers)
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.Named("timer")
	return t
}

// Init registers the timer interrupt and programs the timer chip to raise
// it TimerFreq times per second. It must run once, before interrupts are
// enabled and before any sleep.
func (t *Timer) Init() {
	if !t.state.CompareAndSwap(stateNew, stateReady) {
		t.halt("timer already initialized")
	}

	t.intr.RegisterExt(TimerVector, "8254 Timer", t.interrupt)
	if err := t.chip.Configure(pitChannel, pitMode, TimerFreq); err != nil {
		t.halt("configure 8254: %v", err)
	}

	t.log.Info("timer initialized",
		zap.Int("freq_hz", TimerFreq),
		zap.Int("max_sleepers", len(t.queue.pool)))
}

// interrupt is the timer interrupt handler.
func (t *Timer) interrupt(f *Frame) {
	now := t.clock.advance()
	t.sched.Tick()
	t.drainDue(now)
}

// Ticks returns the number of timer ticks since the timer was initialized.
func (t *Timer) Ticks() int64 {
	return t.clock.now()
}

// Elapsed returns the number of ticks since then, which should be a value
// once returned by Ticks.
func (t *Timer) Elapsed(then int64) int64 {
	return t.Ticks() - then
}

// LoopsPerTick returns the calibrated busy-wait constant, 0 before Calibrate.
func (t *Timer) LoopsPerTick() uint64 {
	return t.loopsPerTick.Load()
}

// PrintStats prints timer statistics.
func (t *Timer) PrintStats() {
	s := t.Stats()
	t.debugPrintln("Timer: " + strconv.FormatInt(s.Ticks, 10) + " ticks")
	t.log.Info("timer stats",
		zap.Int64("ticks", s.Ticks),
		zap.Int("sleepers", s.Sleepers),
		zap.Int64("peak_sleepers", s.PeakSleepers),
		zap.Uint64("sleeps", s.Sleeps),
		zap.Uint64("wakeups", s.Wakeups),
		zap.Uint64("busy_waits", s.BusyWaits),
		zap.Uint64("loops_per_tick", s.LoopsPerTick))
}

// requireState halts unless the timer has reached at least min.
func (t *Timer) requireState(min uint32, op string) {
	if t.state.Load() < min {
		switch min {
		case stateCalibrated:
			t.halt("%s before timer calibration", op)
		default:
			t.halt("%s before timer initialization", op)
		}
	}
}
