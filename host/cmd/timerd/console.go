package main

import (
	"devtimer/console"
	"devtimer/sim"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Boot and calibrate, then read timer commands interactively",
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

			return m.Run(func(m *sim.Machine) {
				m.Timer.Calibrate()

				c := console.New(e.log, m.Timer, e.console)
				if err := c.Run(e.console); err != nil {
					e.log.Error("console stopped", zap.Error(err))
				}
			})
		},
	}
}
