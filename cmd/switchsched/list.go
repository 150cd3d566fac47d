package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/infrastructure/config"
)

func newListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the switchable devices known to the controller",
		Long: `List prints the identifier, name and current state of every device the
controller knows about. Only the fritz controller can enumerate devices.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateController(); err != nil {
				return err
			}
			if cfg.Controller.Type == config.ControllerDryRun {
				return fmt.Errorf("list needs a real controller (fritz or mqtt)")
			}

			ctx := cmd.Context()
			tracker, closeController, err := openController(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeController()

			infos, err := tracker.List(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRODUCT\tPRESENT\tSTATE")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", info.ID, info.Name, info.Product, info.Present, info.State)
			}
			return tw.Flush()
		},
	}
}
