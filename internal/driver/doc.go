// Package driver runs a schedule: it reconciles once at start, then sleeps
// until each entry falls due and hands it to an executor.
//
// # States
//
//	Starting ──reconcile ok──▶ Waiting ──due──▶ Applying ──▶ Reloading ──▶ Waiting
//	    │                        │  ▲                                       ▲
//	    └─reconcile failed       │  └──────── change / recheck ─────────────┘
//	      (Start returns error)  └──no next entry / cancelled──▶ Done
//
// One goroutine owns the executor for the whole run. Other goroutines see
// progress only through immutable Status snapshots.
//
// # Usage
//
//	h, err := driver.Start(ctx, exec, driver.Options{
//	    Logger:  log,
//	    Changes: watcher.Changes(),
//	    Recheck: cron.Every(5 * time.Minute),
//	})
//	if err != nil {
//	    return err // errors.Is(err, driver.ErrStartup)
//	}
//	return h.Wait()
package driver
