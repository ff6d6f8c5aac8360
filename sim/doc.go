// Package sim runs the timer on a regular Go host. It provides the
// collaborators the timer expects from the machine: an interrupt
// controller, an interval timer that raises the timer interrupt from a
// time.Ticker, and a uniprocessor scheduler in which exactly one thread
// holds the CPU at a time.
package sim
