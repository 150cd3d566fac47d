package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/infrastructure/config"
	"github.com/nerrad567/switchsched/internal/infrastructure/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	schedule   string
	device     string
	controller string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "switchsched",
		Short: "Drive smart outlets through a timed on/off schedule",
		Long: `switchsched executes a schedule file of timestamped on/off actions against
FRITZ!DECT outlets (directly over AHA-HTTP) or any device reachable through
an MQTT bridge.

Schedule lines look like:
  2024-12-01 17:30:00 087610 123456 on
  2024-12-01 23:00:00 087610 123456 off`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", os.Getenv("SWITCHSCHED_CONFIG"), "Path to config.yaml (optional)")
	pf.StringVarP(&g.schedule, "schedule", "s", "", "Schedule file (overrides schedule.path)")
	pf.StringVarP(&g.device, "device", "d", "", "Only drive this device (overrides schedule.device)")
	pf.StringVar(&g.controller, "controller", "", "Controller type: fritz, mqtt or dryrun")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(g),
		newCheckCmd(g),
		newNextCmd(g),
		newSwitchCmd(g),
		newListCmd(g),
	)
	return root
}

// loadConfig reads the config file (if any), applies flag overrides and
// builds the logger. Validation is left to the caller since not every
// subcommand needs every section.
func (g *globalFlags) loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if g.schedule != "" {
		cfg.Schedule.Path = g.schedule
	}
	if g.device != "" {
		cfg.Schedule.Device = g.device
	}
	if g.controller != "" {
		cfg.Controller.Type = g.controller
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	return cfg, logging.New(cfg.Logging, version), nil
}
