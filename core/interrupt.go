package core

// Level is the processor interrupt state.
type Level uint8

const (
	IntrOff Level = iota // Interrupts disabled
	IntrOn               // Interrupts enabled
)

func (l Level) String() string {
	if l == IntrOn {
		return "on"
	}
	return "off"
}

// Frame describes the interrupt being serviced. Handlers receive it so that
// code reached from an interrupt can be told apart from task code without
// asking the controller.
type Frame struct {
	Vector uint8
}

// Handler services one external interrupt. It runs with interrupts disabled
// and must not block.
type Handler func(f *Frame)

// InterruptController registers handlers for external interrupt lines and
// masks delivery for the calling task.
type InterruptController interface {
	// RegisterExt installs h for the external interrupt vector.
	RegisterExt(vector uint8, name string, h Handler)

	// Disable masks interrupts and returns the previous level.
	Disable() Level

	// Restore sets the interrupt level back to a value returned by Disable.
	Restore(old Level)

	// Level reports the current interrupt level of the running task.
	Level() Level
}

// TimerChip programs the interval timer that drives the tick interrupt.
type TimerChip interface {
	// Configure sets channel to the given mode at freq interrupts per second.
	Configure(channel, mode int, freq uint32) error
}
