package main

import (
	"fmt"

	"devtimer/sim"

	"github.com/spf13/cobra"
)

func newCalibrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Measure busy-wait loops per tick on this CPU",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			defer e.close()

			return e.newMachine().Run(func(m *sim.Machine) {
				perSecond := m.Timer.Calibrate()
				fmt.Fprintf(e.console, "loops_per_tick=%d loops_per_second=%d\n", m.Timer.LoopsPerTick(), perSecond)
			})
		},
	}
}
