package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/schedule"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse a schedule and print it normalized",
		Long: `Check parses the schedule (use --schedule - for stdin) and prints every
entry in execution order, one normalized line each. The first malformed
line is reported with its line number and the command exits 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Schedule.Path == "" {
				return fmt.Errorf("no schedule given (use --schedule FILE or --schedule -)")
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			var sched *schedule.Schedule
			if cfg.Schedule.Path == "-" {
				sched, err = schedule.Parse(cmd.InOrStdin(), "-", loc)
			} else {
				sched, err = schedule.Load(cfg.Schedule.Path, loc)
			}
			if err != nil {
				return err
			}

			if !quiet {
				if err := sched.Format(cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d entries, %d devices\n",
				sched.Source(), sched.Len(), len(sched.Devices()))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report errors and the summary")
	return cmd
}
