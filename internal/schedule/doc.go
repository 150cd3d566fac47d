// Package schedule is the schedule store for switchsched.
//
// A schedule is a plain text file with one timed device action per line:
//
//	2024-12-01 16:30:00 087610 123456 on
//	2024-12-01 23:00:00 087610 123456 off
//	# comments and blank lines are ignored
//	2024-12-02 06:30:00 "Garden Lights" on
//
// The first two fields are the local date and time, the last field is the
// action ("on" or "off", case-insensitive) and everything in between is the
// device identifier. Identifiers may contain spaces; surrounding double
// quotes are stripped. Any other action token is kept as Unrecognized so the
// line still loads, but executors never dispatch it.
//
// # Key Types
//
//   - Action: TurnOn, TurnOff or Unrecognized
//   - Entry: one timestamped action for one device
//   - Schedule: immutable, time-ordered list of entries
//   - Watcher: fsnotify-based change notification for the schedule file
//
// A Schedule is never modified after Parse returns. Reloading builds a new
// Schedule; callers swap the pointer.
//
// # Usage
//
//	s, err := schedule.Load("lights.schedule", time.Local)
//	if err != nil {
//	    return err // errors.Is(err, schedule.ErrParse) for malformed lines
//	}
//	if next, ok := s.NextAction(time.Now()); ok {
//	    fmt.Println("next:", next)
//	}
package schedule
