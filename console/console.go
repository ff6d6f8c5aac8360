// Package console is an interactive line console over the timer's public
// operations. It runs inside a kernel thread, so sleep commands really
// block that thread.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"devtimer/core"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

// Timer is the part of the timer the console drives
type Timer interface {
	Ticks() int64
	Elapsed(then int64) int64
	Sleep(ticks int64)
	MSleep(ms int64)
	USleep(us int64)
	NSleep(ns int64)
	MDelay(ms int64)
	UDelay(us int64)
	NDelay(ns int64)
	Stats() core.Stats
	DumpTimingRing()
}

// Console reads commands from a line source and writes results to out
type Console struct {
	log   *zap.Logger
	timer Timer
	out   io.Writer
	reg   *Registry
}

// New creates a console with the timer commands registered
func New(log *zap.Logger, timer Timer, out io.Writer) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{
		log:   log.Named("console"),
		timer: timer,
		out:   out,
		reg:   NewRegistry(),
	}
	c.registerCommands()
	return c
}

// Registry returns the console's command registry
func (c *Console) Registry() *Registry {
	return c.reg
}

func (c *Console) registerCommands() {
	c.reg.Register("help", "", "Show this help message", c.handleHelp)
	c.reg.Register("ticks", "", "Ticks since boot", c.handleTicks)
	c.reg.Register("elapsed", "<tick>", "Ticks elapsed since <tick>", c.handleElapsed)
	c.reg.Register("sleep", "<ticks>", "Sleep for <ticks> timer ticks", c.durationHandler(c.timer.Sleep))
	c.reg.Register("msleep", "<ms>", "Sleep for <ms> milliseconds", c.durationHandler(c.timer.MSleep))
	c.reg.Register("usleep", "<us>", "Sleep for <us> microseconds", c.durationHandler(c.timer.USleep))
	c.reg.Register("nsleep", "<ns>", "Sleep for <ns> nanoseconds", c.durationHandler(c.timer.NSleep))
	c.reg.Register("mdelay", "<ms>", "Busy-wait <ms> milliseconds", c.durationHandler(c.timer.MDelay))
	c.reg.Register("udelay", "<us>", "Busy-wait <us> microseconds", c.durationHandler(c.timer.UDelay))
	c.reg.Register("ndelay", "<ns>", "Busy-wait <ns> nanoseconds", c.durationHandler(c.timer.NDelay))
	c.reg.Register("stats", "", "Print timer statistics", c.handleStats)
	c.reg.Register("dump", "", "Dump the timing ring", c.handleDump)
}

// Exec parses and runs one command line
func (c *Console) Exec(line string) error {
	parts, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(parts) == 0 {
		return nil
	}
	return c.reg.Dispatch(parts[0], parts[1:])
}

// Run executes lines from in until EOF or quit
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}

		if err := c.Exec(line); err != nil {
			c.log.Debug("command failed", zap.String("line", line), zap.Error(err))
			if errors.Is(err, ErrUnknownCommand) {
				fmt.Fprintf(c.out, "%v (type 'help' for available commands)\n", err)
				continue
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read console: %w", err)
	}
	return nil
}

func (c *Console) handleHelp(args []string) error {
	fmt.Fprintln(c.out, "Available commands:")
	fmt.Fprint(c.out, c.reg.Dictionary())
	fmt.Fprintln(c.out, "  quit/exit/q            - Leave the console")
	return nil
}

func (c *Console) handleTicks(args []string) error {
	fmt.Fprintf(c.out, "%d\n", c.timer.Ticks())
	return nil
}

func (c *Console) handleElapsed(args []string) error {
	then, err := intArg(args)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d\n", c.timer.Elapsed(then))
	return nil
}

// durationHandler wraps a sleep or delay and reports the ticks it took
func (c *Console) durationHandler(fn func(int64)) CommandHandler {
	return func(args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		start := c.timer.Ticks()
		fn(n)
		fmt.Fprintf(c.out, "elapsed %d ticks\n", c.timer.Elapsed(start))
		return nil
	}
}

func (c *Console) handleStats(args []string) error {
	s := c.timer.Stats()
	fmt.Fprintf(c.out, "Timer: %d ticks\n", s.Ticks)
	fmt.Fprintf(c.out, "  sleepers:       %d (peak %d)\n", s.Sleepers, s.PeakSleepers)
	fmt.Fprintf(c.out, "  sleeps:         %d\n", s.Sleeps)
	fmt.Fprintf(c.out, "  wakeups:        %d\n", s.Wakeups)
	fmt.Fprintf(c.out, "  busy waits:     %d\n", s.BusyWaits)
	fmt.Fprintf(c.out, "  loops per tick: %d\n", s.LoopsPerTick)
	return nil
}

func (c *Console) handleDump(args []string) error {
	c.timer.DumpTimingRing()
	return nil
}

func intArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one integer argument", ErrUsage)
	}
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrUsage, args[0])
	}
	return n, nil
}
