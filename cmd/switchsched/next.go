package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/switchsched/internal/schedule"
)

// atLayouts are accepted by --at, tried in order.
var atLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

func newNextCmd(g *globalFlags) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the last due and the next pending action",
		Long: `Next prints the action that should currently be in effect and the one
that will run next, as run would see them at the given time (default: now).
With --device only that device's entries are considered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := g.loadConfig()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			path, err := schedule.Resolve(cfg.Schedule.Path)
			if err != nil {
				return err
			}
			sched, err := schedule.Load(path, loc)
			if err != nil {
				return err
			}

			now := time.Now().In(loc)
			if at != "" {
				if now, err = parseAt(at, loc); err != nil {
					return err
				}
			}

			printNext(cmd.OutOrStdout(), sched, cfg.Schedule.Device, now)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", `Evaluate at this time ("2024-12-01 18:00:00", site timezone)`)
	return cmd
}

func parseAt(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range atLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q: want YYYY-MM-DD HH:MM:SS", s)
}

// printNext writes "last" and "next" lines for the schedule as seen at now.
func printNext(w io.Writer, sched *schedule.Schedule, deviceID string, now time.Time) {
	var (
		last, next schedule.Entry
		hasLast    bool
		hasNext    bool
	)
	if deviceID == "" {
		last, hasLast = sched.LastAction(now)
		next, hasNext = sched.NextAction(now)
	} else {
		last, hasLast = sched.LastActionFor(deviceID, now)
		for _, e := range sched.Entries() {
			if e.DeviceID == deviceID && e.Time.After(now) {
				next, hasNext = e, true
				break
			}
		}
	}

	line := func(label string, e schedule.Entry, ok bool) {
		if !ok {
			fmt.Fprintf(w, "%s  none\n", label)
			return
		}
		fmt.Fprintf(w, "%s  %s\n", label, e)
	}
	line("last", last, hasLast)
	line("next", next, hasNext)
	if hasNext {
		fmt.Fprintf(w, "in    %s\n", next.Time.Sub(now).Round(time.Second))
	}
}
