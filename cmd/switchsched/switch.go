package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/infrastructure/config"
)

func newSwitchCmd(g *globalFlags) *cobra.Command {
	var on, off, toggle bool

	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Switch one device immediately",
		Long: `Switch sets a single device on, off, or toggles it, then prints the
resulting state. The device is given with --device.`,
		Example: `  switchsched switch --device "087610 123456" --on`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateController(); err != nil {
				return err
			}
			if cfg.Controller.Type == config.ControllerDryRun {
				return errors.New("switch needs a real controller (fritz or mqtt)")
			}
			id := cfg.Schedule.Device
			if err := device.ValidateID(id); err != nil {
				return fmt.Errorf("--device: %w", err)
			}

			ctx := cmd.Context()
			tracker, closeController, err := openController(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeController()

			switch {
			case on:
				err = tracker.SetState(ctx, id, device.StateOn)
			case off:
				err = tracker.SetState(ctx, id, device.StateOff)
			case toggle:
				err = tracker.Toggle(ctx, id)
			}
			if err != nil {
				return err
			}

			state, err := tracker.State(ctx, id)
			if err != nil && !errors.Is(err, device.ErrStateUnknown) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&on, "on", false, "Switch the device on")
	cmd.Flags().BoolVar(&off, "off", false, "Switch the device off")
	cmd.Flags().BoolVar(&toggle, "toggle", false, "Toggle the device")
	cmd.MarkFlagsMutuallyExclusive("on", "off", "toggle")
	cmd.MarkFlagsOneRequired("on", "off", "toggle")
	return cmd
}
