package core

import (
	"errors"
	"strconv"

	"go.uber.org/zap"
)

// Calibration search parameters
const (
	calibrateStartLoops = 1 << 10
	calibrateRefineStop = 10 // refine bits down to highBit>>9
	calibrateMaxLoops   = 1 << 62
)

var errCalibrateOverflow = errors.New("loop count overflow: ticks are not advancing")

// loopCalibrator finds the largest busy-wait loop count that completes
// within one tick, using only the tick count as a reference clock.
type loopCalibrator struct {
	now   func() int64
	spin  func(loops int64)
	probe func(loops uint64, overran bool)
}

// tooManyLoops reports whether loops iterations take longer than one tick.
func (c *loopCalibrator) tooManyLoops(loops uint64) bool {
	// Start timing on a tick edge so a whole tick is available
	start := c.now()
	for c.now() == start {
	}

	start = c.now()
	c.spin(int64(loops))
	overran := start != c.now()

	if c.probe != nil {
		c.probe(loops, overran)
	}
	return overran
}

// run approximates the loop count as the largest power of two that still
// fits in a tick, then refines the next bits below it.
func (c *loopCalibrator) run() (uint64, error) {
	loops := uint64(calibrateStartLoops)
	for !c.tooManyLoops(loops << 1) {
		loops <<= 1
		if loops >= calibrateMaxLoops {
			return 0, errCalibrateOverflow
		}
	}

	highBit := loops
	for testBit := highBit >> 1; testBit != highBit>>calibrateRefineStop; testBit >>= 1 {
		if !c.tooManyLoops(loops | testBit) {
			loops |= testBit
		}
	}
	return loops, nil
}

// Calibrate measures how many busy-wait loops fit in one tick, which sets
// the scale for delays shorter than a tick. It must run once, after Init,
// with interrupts on. It returns the measured loops per second.
func (t *Timer) Calibrate() uint64 {
	if t.intr.Level() != IntrOn {
		t.halt("timer calibration requires interrupts on")
	}
	if !t.state.CompareAndSwap(stateReady, stateCalibrating) {
		if t.state.Load() == stateNew {
			t.halt("calibrate before timer initialization")
		}
		t.halt("timer already calibrated")
	}

	t.debugPrintln("Calibrating timer...  ")
	c := &loopCalibrator{
		now:  t.clock.now,
		spin: busyWait,
		probe: func(loops uint64, overran bool) {
			var v int64
			if overran {
				v = 1
			}
			t.trace(EvtCalibrate, 0, int64(loops), v)
		},
	}
	loops, err := c.run()
	if err != nil {
		t.halt("calibration failed: %v", err)
	}

	t.loopsPerTick.Store(loops)
	t.state.Store(stateCalibrated)

	perSecond := loops * TimerFreq
	t.debugPrintln(formatThousands(perSecond) + " loops/s.")
	t.log.Info("timer calibrated",
		zap.Uint64("loops_per_tick", loops),
		zap.Uint64("loops_per_second", perSecond))
	return perSecond
}

// busyWait iterates a simple loop loops times. It is kept out of line so
// that every caller runs the same code, with the same alignment, that was
// calibrated.
//
//go:noinline
func busyWait(loops int64) {
	for loops > 0 {
		loops--
		barrier()
	}
}

// barrier stops the compiler from removing the busy-wait loop.
//
//go:noinline
func barrier() {}

// formatThousands renders n with thousands separators.
func formatThousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
