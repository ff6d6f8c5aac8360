package core

import "strconv"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a timer event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Task      uint32 // Task ID, 0 when not task related
	Tick      int64  // Tick count at event
	Value1    int64  // Context-dependent value
	Value2    int64  // Context-dependent value
}

// Event type codes
const (
	EvtSleep     = 1 // Task queued: v1=wake tick, v2=queue depth
	EvtWake      = 2 // Task unblocked: v1=wake tick, v2=lateness in ticks
	EvtCalibrate = 3 // Calibration probe: v1=loop count, v2=1 if it overran a tick
	EvtDelay     = 4 // Busy-wait: v1=loops
	EvtHalt      = 5 // Kernel halt
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

// timingRing is a fixed buffer of the most recent events. Recording never
// allocates, so it is usable from the timer interrupt.
type timingRing struct {
	lock   SpinLock
	events [TimingRingSize]TimingEvent
	head   uint8 // Next write position
}

// record stores an event. Caller holds r.lock.
func (r *timingRing) record(eventType uint8, task uint32, tick, value1, value2 int64) {
	idx := r.head
	r.events[idx] = TimingEvent{
		EventType: eventType,
		Task:      task,
		Tick:      tick,
		Value1:    value1,
		Value2:    value2,
	}
	r.head = (idx + 1) % TimingRingSize
}

// snapshot returns recorded events from oldest to newest. Caller holds r.lock.
func (r *timingRing) snapshot() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := r.events[(r.head+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func (r *timingRing) clear() {
	r.events = [TimingRingSize]TimingEvent{}
	r.head = 0
}

// trace records an event from task context.
func (t *Timer) trace(eventType uint8, task uint32, value1, value2 int64) {
	old := t.ring.lock.LockIRQSave(t.intr)
	t.ring.record(eventType, task, t.clock.now(), value1, value2)
	t.ring.lock.UnlockIRQRestore(t.intr, old)
}

// TimingEvents returns the timing ring from oldest to newest.
func (t *Timer) TimingEvents() []TimingEvent {
	old := t.ring.lock.LockIRQSave(t.intr)
	defer t.ring.lock.UnlockIRQRestore(t.intr, old)
	return t.ring.snapshot()
}

// ClearTimingRing clears the timing buffer
func (t *Timer) ClearTimingRing() {
	old := t.ring.lock.LockIRQSave(t.intr)
	t.ring.clear()
	t.ring.lock.UnlockIRQRestore(t.intr, old)
}

// DumpTimingRing outputs the timing ring through the debug writer
func (t *Timer) DumpTimingRing() {
	if t.debugPrintln == nil {
		return
	}

	t.debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range t.TimingEvents() {
		t.debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" task=" + strconv.FormatUint(uint64(evt.Task), 10) +
			" tick=" + strconv.FormatInt(evt.Tick, 10) +
			" v1=" + strconv.FormatInt(evt.Value1, 10) +
			" v2=" + strconv.FormatInt(evt.Value2, 10))
	}
	t.debugPrintln("[TIMING] === End Dump ===")
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtSleep:
		return "SLEEP"
	case EvtWake:
		return "WAKE"
	case EvtCalibrate:
		return "CALIBRATE"
	case EvtDelay:
		return "DELAY"
	case EvtHalt:
		return "HALT!"
	default:
		return "UNKNOWN"
	}
}
