package serial

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

var ErrNoDevice = errors.New("serial: no console device configured")

// ConsolePort is a console line on a tarm/serial port. Terminals on the
// other end expect CRLF, so output newlines are expanded unless the line
// is configured raw.
type ConsolePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens the console line
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open console %s: %w", cfg.Device, err)
	}

	return &ConsolePort{port: port, cfg: cfg}, nil
}

func (p *ConsolePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write sends console output. The count returned is in terms of b, not of
// the expanded bytes on the wire.
func (p *ConsolePort) Write(b []byte) (int, error) {
	if p.cfg.RawNewlines {
		return p.port.Write(b)
	}
	if _, err := p.port.Write(expandNewlines(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *ConsolePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

func (p *ConsolePort) Flush() error {
	return p.port.Flush()
}

// Device returns the console device path
func (p *ConsolePort) Device() string {
	return p.cfg.Device
}

// expandNewlines turns every bare "\n" into "\r\n"
func expandNewlines(b []byte) []byte {
	n := bytes.Count(b, []byte{'\n'})
	if n == 0 {
		return b
	}
	out := make([]byte, 0, len(b)+n)
	for i, c := range b {
		if c == '\n' && (i == 0 || b[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, c)
	}
	return out
}
