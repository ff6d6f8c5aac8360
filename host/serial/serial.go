// Package serial attaches the kernel console to a serial line, the way a
// kernel without a display prints boot messages and takes commands.
package serial

import (
	"io"

	"devtimer/config"
)

// Port is the console line: console reads take typed command lines, and
// writes carry boot messages, timing dumps and command output.
type Port interface {
	io.ReadWriteCloser

	// Flush discards pending input and output in the line driver
	Flush() error
}

// Config selects the console line
type Config struct {
	Device      string // e.g. "/dev/ttyS0", "COM1"
	Baud        int
	ReadTimeout int  // Milliseconds; 0 blocks, which the console wants
	RawNewlines bool // Write "\n" as is instead of "\r\n"
}

// DefaultConfig returns a 115200 baud console on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}

// FromConsole builds the line configuration from the console section of
// the host configuration.
func FromConsole(c config.ConsoleConfig) *Config {
	cfg := DefaultConfig(c.Device)
	if c.Baud > 0 {
		cfg.Baud = c.Baud
	}
	return cfg
}
