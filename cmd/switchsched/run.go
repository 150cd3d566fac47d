package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/api"
	"github.com/nerrad567/switchsched/internal/driver"
	"github.com/nerrad567/switchsched/internal/executor"
	"github.com/nerrad567/switchsched/internal/infrastructure/config"
	"github.com/nerrad567/switchsched/internal/infrastructure/influxdb"
	"github.com/nerrad567/switchsched/internal/infrastructure/logging"
	"github.com/nerrad567/switchsched/internal/schedule"
)

func newRunCmd(g *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the schedule until no entries are left",
		Long: `Run reconciles every device with the last action already due, then waits
for each following entry and applies it at its scheduled time.

The schedule file is reloaded before every wait, so edits take effect
without a restart. The command returns once the last entry has been applied.

Exit status is 1 if the schedule cannot be loaded and 2 if the controller
rejects the credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := g.loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Controller.Type = config.ControllerDryRun
			}
			return runSchedule(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log actions instead of switching devices")
	return cmd
}

// runSchedule wires the daemon together and blocks until the driver is done.
//
// Parameters:
//   - ctx: cancelled on SIGINT/SIGTERM
//   - cfg: loaded configuration with flag overrides applied
//   - log: configured logger
//
// Returns:
//   - error: nil once the schedule is exhausted or ctx is cancelled
func runSchedule(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	log.Info("starting switchsched",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	recheck, err := cfg.RecheckSchedule()
	if err != nil {
		return err
	}

	// The schedule must exist before anything else is touched.
	path, err := schedule.Resolve(cfg.Schedule.Path)
	if err != nil {
		return err
	}
	sched, err := schedule.Load(path, loc)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	log.Info("schedule loaded",
		"path", path,
		"entries", sched.Len(),
		"devices", len(sched.Devices()),
	)

	tracker, closeController, err := openController(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeController()

	opts := executor.Options{
		Device:   cfg.Schedule.Device,
		Location: loc,
		Logger:   log.With("component", "executor"),
	}
	var exec executor.Executor
	if tracker == nil {
		exec = executor.NewDryRun(sched, opts)
	} else {
		exec = executor.NewSwitch(sched, tracker, opts)
	}

	driverOpts := driver.Options{
		Logger:  log.With("component", "driver"),
		Recheck: recheck,
	}

	if cfg.Schedule.Watch {
		watcher, watchErr := schedule.NewWatcher(path, log.With("component", "watcher"))
		if watchErr != nil {
			return fmt.Errorf("watching schedule: %w", watchErr)
		}
		defer watcher.Close() //nolint:errcheck // shutdown path
		driverOpts.Changes = watcher.Changes()
	}

	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		driverOpts.Recorder = influxdb.NewRecorder(influxClient, cfg.Site.Name)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// The API server is built before the driver starts so a construction
	// error never leaves a running loop behind.
	var srv *api.Server
	status := &driverStatus{}
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Status:  status,
			Version: version,
		}
		if tracker != nil {
			deps.Devices = tracker
		}
		var apiErr error
		if srv, apiErr = api.New(deps); apiErr != nil {
			return apiErr
		}
	}

	handle, err := driver.Start(ctx, exec, driverOpts)
	if err != nil {
		return err
	}
	status.bind(handle)

	if srv != nil {
		if startErr := srv.Start(ctx); startErr != nil {
			// The driver is already running; keep going without the status API.
			log.Error("status API unavailable", "error", startErr)
		} else {
			defer srv.Close() //nolint:errcheck // shutdown path
		}
	}

	notify(log, daemon.SdNotifyReady)
	defer notify(log, daemon.SdNotifyStopping)

	return handle.Wait()
}

// driverStatus serves driver snapshots to the API once the driver has
// started. Before that it reports an empty status.
type driverStatus struct {
	handle atomic.Pointer[driver.Handle]
}

func (s *driverStatus) bind(h *driver.Handle) {
	s.handle.Store(h)
}

// Status implements api.StatusSource.
func (s *driverStatus) Status() driver.Status {
	if h := s.handle.Load(); h != nil {
		return h.Status()
	}
	return driver.Status{}
}

// notify sends a systemd state update. Outside systemd it does nothing.
func notify(log *logging.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Warn("systemd notify failed", "state", state, "error", err)
	}
}
