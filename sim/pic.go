package sim

import (
	"sync"
	"sync/atomic"

	"devtimer/core"

	"go.uber.org/zap"
)

type irqHandler struct {
	name string
	fn   core.Handler
}

// PIC is a single-CPU interrupt controller. The processor interrupt flag
// is modeled by mu: it is held while interrupts are off, and delivery takes
// it for the duration of a handler, so a handler never overlaps a task that
// has interrupts disabled.
//
// Disable, Restore and Level belong to the running thread. Handlers never
// call them; code reached from a handler uses plain spinlocks.
type PIC struct {
	log *zap.Logger

	mu  sync.Mutex
	off bool // Owned by the running thread

	hmu      sync.RWMutex
	handlers [256]*irqHandler

	delivered atomic.Uint64
	spurious  atomic.Uint64

	fault func(any)
}

// NewPIC returns a controller with interrupts disabled, as at power on.
func NewPIC(log *zap.Logger) *PIC {
	if log == nil {
		log = zap.NewNop()
	}
	p := &PIC{
		log:   log.Named("pic"),
		off:   true,
		fault: func(any) {},
	}
	p.mu.Lock()
	return p
}

// SetFaultHandler sets the function called when a handler panics.
func (p *PIC) SetFaultHandler(fn func(any)) {
	p.fault = fn
}

// RegisterExt installs h for vector.
func (p *PIC) RegisterExt(vector uint8, name string, h core.Handler) {
	p.hmu.Lock()
	defer p.hmu.Unlock()
	if prev := p.handlers[vector]; prev != nil {
		p.log.Warn("replacing interrupt handler",
			zap.Uint8("vector", vector),
			zap.String("old", prev.name),
			zap.String("new", name))
	}
	p.handlers[vector] = &irqHandler{name: name, fn: h}
	p.log.Debug("interrupt registered", zap.Uint8("vector", vector), zap.String("name", name))
}

// Disable masks interrupts and returns the previous level.
func (p *PIC) Disable() core.Level {
	if p.off {
		return core.IntrOff
	}
	p.mu.Lock()
	p.off = true
	return core.IntrOn
}

// Restore sets the interrupt level back to old.
func (p *PIC) Restore(old core.Level) {
	if old == core.IntrOn {
		p.Enable()
	}
}

// Enable unmasks interrupts.
func (p *PIC) Enable() {
	if !p.off {
		return
	}
	p.off = false
	p.mu.Unlock()
}

// Level reports the interrupt level of the running thread.
func (p *PIC) Level() core.Level {
	if p.off {
		return core.IntrOff
	}
	return core.IntrOn
}

// Raise delivers an interrupt on vector. It waits while interrupts are
// masked. A vector with no handler is counted and dropped.
func (p *PIC) Raise(vector uint8) {
	p.hmu.RLock()
	h := p.handlers[vector]
	p.hmu.RUnlock()
	if h == nil {
		p.spurious.Add(1)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("interrupt handler panic",
				zap.Uint8("vector", vector),
				zap.String("name", h.name),
				zap.Any("panic", r))
			p.fault(r)
		}
	}()

	p.delivered.Add(1)
	h.fn(&core.Frame{Vector: vector})
}

// Delivered returns how many interrupts reached a handler.
func (p *PIC) Delivered() uint64 {
	return p.delivered.Load()
}

// Spurious returns how many interrupts had no handler.
func (p *PIC) Spurious() uint64 {
	return p.spurious.Load()
}
