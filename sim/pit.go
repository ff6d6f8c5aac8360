package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 8254 limits
const (
	PITInputHz = 1193182 // Input clock of the 8254
	pitMinHz   = 19      // Divisor must fit in 16 bits
)

var (
	ErrPITChannel = errors.New("pit: only channel 0 drives an interrupt")
	ErrPITMode    = errors.New("pit: unsupported mode")
	ErrPITFreq    = errors.New("pit: frequency out of range")
)

// PIT is a programmable interval timer whose channel 0 raises an interrupt
// on a PIC at the configured rate.
type PIT struct {
	log    *zap.Logger
	pic    *PIC
	vector uint8

	mu   sync.Mutex
	stop chan struct{}
	freq uint32
}

// NewPIT returns a stopped timer wired to raise vector on pic.
func NewPIT(log *zap.Logger, pic *PIC, vector uint8) *PIT {
	if log == nil {
		log = zap.NewNop()
	}
	return &PIT{
		log:    log.Named("pit"),
		pic:    pic,
		vector: vector,
	}
}

// Configure programs channel in mode 2 (rate generator) or 3 (square
// wave) at freq interrupts per second and starts it. Reprogramming a
// running channel replaces its rate.
func (p *PIT) Configure(channel, mode int, freq uint32) error {
	if channel != 0 {
		return ErrPITChannel
	}
	if mode != 2 && mode != 3 {
		return fmt.Errorf("%w: %d", ErrPITMode, mode)
	}
	if freq < pitMinHz || freq > PITInputHz {
		return fmt.Errorf("%w: %d Hz", ErrPITFreq, freq)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
	}
	p.stop = make(chan struct{})
	p.freq = freq

	// The 8254 counts down a 16-bit divisor of its input clock
	divisor := (PITInputHz + freq/2) / freq
	period := time.Second * time.Duration(divisor) / PITInputHz
	go p.run(period, p.stop)

	p.log.Info("pit configured",
		zap.Int("channel", channel),
		zap.Int("mode", mode),
		zap.Uint32("freq_hz", freq),
		zap.Uint32("divisor", divisor),
		zap.Duration("period", period))
	return nil
}

func (p *PIT) run(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.pic.Raise(p.vector)
		case <-stop:
			return
		}
	}
}

// Freq returns the programmed rate, 0 while stopped.
func (p *PIT) Freq() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq
}

// Stop halts channel 0. It does not wait for an interrupt in flight.
func (p *PIT) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
		p.freq = 0
	}
}
