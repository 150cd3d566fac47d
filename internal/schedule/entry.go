package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// timeLayout is the timestamp layout of the first two fields of a line.
const timeLayout = "2006-01-02 15:04:05"

// lineRE splits a schedule line into date, time, device identifier and
// action token. The identifier is lazy so the action is always the last field.
var lineRE = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(.+?)\s+(\S+)$`)

// Entry is one timestamped action for one device.
type Entry struct {
	Time     time.Time
	DeviceID string
	Action   Action

	// Line is the 1-based line number in the source, 0 for entries built in code.
	Line int
}

// ParseEntry parses a single schedule line.
//
// Parameters:
//   - line: "YYYY-MM-DD HH:MM:SS <device identifier> <action>"
//   - loc: location the wall-clock timestamp is interpreted in (nil = time.Local)
//
// Returns:
//   - Entry: the parsed entry (Line is left 0)
//   - error: a reason string suitable for ParseError.Reason
func ParseEntry(line string, loc *time.Location) (Entry, error) {
	if loc == nil {
		loc = time.Local
	}

	m := lineRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Entry{}, fmt.Errorf("expected \"<date> <time> <device> <action>\"")
	}

	stamp := m[1] + " " + m[2]
	ts, err := time.ParseInLocation(timeLayout, stamp, loc)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid timestamp %q", stamp)
	}
	// ParseInLocation normalises wall-clock times skipped by a DST jump.
	if ts.Format(timeLayout) != stamp {
		return Entry{}, fmt.Errorf("timestamp %q does not exist in %s", stamp, loc)
	}

	id := strings.TrimSpace(strings.Trim(m[3], `"`))
	if id == "" {
		return Entry{}, fmt.Errorf("empty device identifier")
	}

	return Entry{
		Time:     ts,
		DeviceID: id,
		Action:   ParseAction(m[4]),
	}, nil
}

// String returns the line-level representation of the entry. Feeding it back
// through ParseEntry with the same location yields an equal entry.
func (e Entry) String() string {
	return fmt.Sprintf("%s %s %s", e.Time.Format(timeLayout), e.DeviceID, e.Action)
}

// Equal reports whether two entries describe the same action. Line numbers
// are ignored.
func (e Entry) Equal(other Entry) bool {
	return e.Time.Equal(other.Time) &&
		e.DeviceID == other.DeviceID &&
		e.Action == other.Action
}
