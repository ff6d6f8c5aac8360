package main

import (
	"fmt"
	"sync"

	"devtimer/sim"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Calibrate, run the demo sleepers and print wake order and statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.close()

			m := e.newMachine()
			stop, err := e.serveMetrics(m)
			if err != nil {
				return err
			}
			defer stop()

			var (
				mu    sync.Mutex
				order []string
			)
			err = m.Run(func(m *sim.Machine) {
				m.Timer.Calibrate()

				start := m.Timer.Ticks()
				for _, s := range e.cfg.Demo.Sleepers {
					m.Sched.Spawn(s.Name, func() {
						m.Timer.Sleep(s.Ticks)
						elapsed := m.Timer.Elapsed(start)

						mu.Lock()
						order = append(order, s.Name)
						mu.Unlock()
						fmt.Fprintf(e.console, "%s woke after %d ticks (asked %d)\n", s.Name, elapsed, s.Ticks)
					})
				}
			})
			if err != nil {
				return err
			}

			// Every thread has exited once Run returns
			m.Timer.PrintStats()
			e.log.Info("wake order", zap.Strings("order", order))
			fmt.Fprintf(e.console, "Wake order: %v\n", order)
			return nil
		},
	}
}
