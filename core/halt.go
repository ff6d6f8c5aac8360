package core

import (
	"fmt"

	"go.uber.org/zap"
)

// KernelPanic is the value a halted timer panics with. Nothing below the
// timer can recover from these conditions; hosts may catch the panic at
// the top of a thread to report it.
type KernelPanic struct {
	Msg  string
	Tick int64
}

func (p *KernelPanic) Error() string {
	return fmt.Sprintf("Kernel PANIC at tick %d: %s", p.Tick, p.Msg)
}

// halt logs the failure, dumps the timing ring and stops the calling thread.
func (t *Timer) halt(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	now := t.clock.now()

	t.log.Error("kernel halt", zap.String("reason", msg), zap.Int64("tick", now))
	t.trace(EvtHalt, 0, 0, 0)
	t.debugPrintln("Kernel PANIC: " + msg)
	t.DumpTimingRing()

	panic(&KernelPanic{Msg: msg, Tick: now})
}
