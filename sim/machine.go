package sim

import (
	"fmt"
	"sync"

	"devtimer/core"

	"go.uber.org/zap"
)

// Machine is a booted host: interrupt controller, interval timer, scheduler
// and the timer subsystem on top of them.
type Machine struct {
	log   *zap.Logger
	PIC   *PIC
	PIT   *PIT
	Sched *Scheduler
	Timer *core.Timer

	faultOnce sync.Once
	fault     chan error
}

// NewMachine assembles a machine. opts configure the timer.
func NewMachine(log *zap.Logger, opts ...core.Option) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Machine{
		log:   log.Named("machine"),
		PIC:   NewPIC(log),
		Sched: NewScheduler(log),
		fault: make(chan error, 1),
	}
	m.PIT = NewPIT(log, m.PIC, core.TimerVector)
	m.Timer = core.New(m.Sched, m.PIC, m.PIT, append([]core.Option{core.WithLogger(log)}, opts...)...)

	m.PIC.SetFaultHandler(m.raiseFault)
	m.Sched.SetFaultHandler(m.raiseFault)
	return m
}

// raiseFault records the first panic of a thread or handler.
func (m *Machine) raiseFault(r any) {
	m.faultOnce.Do(func() {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", r)
		}
		m.fault <- err
	})
}

// Run boots the machine. The main thread initializes the timer, enables
// interrupts and calls main; Run returns once every thread has exited, or
// with the error of the first kernel panic. Threads still blocked after a
// panic are abandoned.
func (m *Machine) Run(main func(m *Machine)) error {
	done := make(chan struct{})

	m.Sched.Spawn("main", func() {
		m.Timer.Init()
		m.PIC.Enable()
		main(m)
	})
	go func() {
		m.Sched.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		// A faulting thread reports before it exits
		select {
		case err = <-m.fault:
		default:
		}
	case err = <-m.fault:
	}
	m.PIT.Stop()

	if err != nil {
		m.log.Error("machine halted", zap.Error(err))
		return err
	}
	m.log.Info("machine stopped", zap.Int64("ticks", m.Timer.Ticks()))
	return nil
}
