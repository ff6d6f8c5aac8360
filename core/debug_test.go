package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimingRingOrder(t *testing.T) {
	var r timingRing
	r.record(EvtSleep, 1, 0, 10, 1)
	r.record(EvtWake, 1, 10, 10, 0)

	events := r.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, uint8(EvtSleep), events[0].EventType)
	assert.Equal(t, uint8(EvtWake), events[1].EventType)
}

func TestTimingRingWraps(t *testing.T) {
	var r timingRing
	for i := 0; i < TimingRingSize+5; i++ {
		r.record(EvtDelay, 0, int64(i), int64(i), 0)
	}

	events := r.snapshot()
	require.Len(t, events, TimingRingSize)
	assert.Equal(t, int64(5), events[0].Tick, "oldest five overwritten")
	assert.Equal(t, int64(TimingRingSize+4), events[TimingRingSize-1].Tick)

	r.clear()
	assert.Empty(t, r.snapshot())
}

func TestDumpTimingRing(t *testing.T) {
	f := newFixture(t)
	f.intr.fire(3)
	f.sleepAs(7, "worker", 5)
	f.lines = nil

	f.timer.DumpTimingRing()

	assert.Equal(t, []string{
		"[TIMING] === Timing Ring Dump ===",
		"[TIMING] SLEEP task=7 tick=3 v1=5 v2=1",
		"[TIMING] === End Dump ===",
	}, f.lines)
}

func TestClearTimingRing(t *testing.T) {
	f := newFixture(t)
	f.sleepAs(2, "a", 4)
	require.NotEmpty(t, f.timer.TimingEvents())

	f.timer.ClearTimingRing()

	assert.Empty(t, f.timer.TimingEvents())
	assert.Equal(t, IntrOn, f.intr.Level())
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "SLEEP", eventName(EvtSleep))
	assert.Equal(t, "WAKE", eventName(EvtWake))
	assert.Equal(t, "CALIBRATE", eventName(EvtCalibrate))
	assert.Equal(t, "DELAY", eventName(EvtDelay))
	assert.Equal(t, "HALT!", eventName(EvtHalt))
	assert.Equal(t, "UNKNOWN", eventName(99))
}
