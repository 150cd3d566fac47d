package schedule

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Schedule is an immutable, time-ordered list of entries loaded from a source.
//
// Entries sharing a timestamp keep their source order. All methods are safe
// for concurrent use because nothing mutates a Schedule after construction.
// A nil *Schedule behaves like an empty one.
type Schedule struct {
	source  string
	entries []Entry
}

// New builds a Schedule from entries, stable-sorting them by time.
// The slice is copied; callers may reuse it.
func New(source string, entries []Entry) *Schedule {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return &Schedule{source: source, entries: sorted}
}

// Resolve checks that path names an existing, readable regular file and
// returns its absolute form. The process calls this before anything else
// is started.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrSourceUnavailable, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q is not a regular file", ErrSourceUnavailable, abs)
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	_ = f.Close()

	return abs, nil
}

// Load reads and parses the schedule file at path.
//
// Parameters:
//   - path: schedule file; recorded as the Schedule's source for reloads
//   - loc: location timestamps are interpreted in (nil = time.Local)
//
// Returns:
//   - *Schedule: the parsed schedule
//   - error: ErrSourceUnavailable if the file cannot be read,
//     a *ParseError (errors.Is ErrParse) if any line is malformed
func Load(path string, loc *time.Location) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return Parse(bytes.NewReader(data), path, loc)
}

// Parse reads a whole schedule from r. Blank lines and lines starting with
// '#' are skipped; every other line must parse or the whole load fails.
func Parse(r io.Reader, source string, loc *time.Location) (*Schedule, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if lineNo == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		entry, err := ParseEntry(trimmed, loc)
		if err != nil {
			return nil, &ParseError{
				Source: source,
				Line:   lineNo,
				Text:   trimmed,
				Reason: err.Error(),
			}
		}
		entry.Line = lineNo
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrSourceUnavailable, source, err)
	}

	return New(source, entries), nil
}

// Source returns the reference the schedule was loaded from.
func (s *Schedule) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

// Len returns the number of entries.
func (s *Schedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the entries in schedule order.
func (s *Schedule) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// upperBound returns the index of the first entry strictly after t.
func (s *Schedule) upperBound(t time.Time) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Time.After(t)
	})
}

// NextAction returns the entry with the smallest timestamp strictly after now.
// Among entries sharing that timestamp the first in source order wins.
// ok is false once now is at or after the last entry.
func (s *Schedule) NextAction(now time.Time) (entry Entry, ok bool) {
	if s == nil {
		return Entry{}, false
	}
	i := s.upperBound(now)
	if i == len(s.entries) {
		return Entry{}, false
	}
	return s.entries[i], true
}

// LastAction returns the entry with the largest timestamp at or before now.
// Among entries sharing that timestamp the last in source order wins.
// ok is false if now precedes the first entry.
func (s *Schedule) LastAction(now time.Time) (entry Entry, ok bool) {
	if s == nil {
		return Entry{}, false
	}
	i := s.upperBound(now)
	if i == 0 {
		return Entry{}, false
	}
	return s.entries[i-1], true
}

// LastActionFor is LastAction restricted to entries for deviceID.
func (s *Schedule) LastActionFor(deviceID string, now time.Time) (entry Entry, ok bool) {
	if s == nil {
		return Entry{}, false
	}
	for i := s.upperBound(now) - 1; i >= 0; i-- {
		if s.entries[i].DeviceID == deviceID {
			return s.entries[i], true
		}
	}
	return Entry{}, false
}

// EntriesAt returns every entry whose timestamp equals t, in source order.
func (s *Schedule) EntriesAt(t time.Time) []Entry {
	if s == nil {
		return nil
	}
	i := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].Time.Before(t)
	})

	var out []Entry
	for ; i < len(s.entries) && s.entries[i].Time.Equal(t); i++ {
		out = append(out, s.entries[i])
	}
	return out
}

// Devices returns the distinct device identifiers in order of first appearance.
func (s *Schedule) Devices() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, e := range s.entries {
		if _, dup := seen[e.DeviceID]; dup {
			continue
		}
		seen[e.DeviceID] = struct{}{}
		out = append(out, e.DeviceID)
	}
	return out
}

// Equal reports whether both schedules hold the same entries in the same
// order. Sources and line numbers are not compared.
func (s *Schedule) Equal(other *Schedule) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if !s.entries[i].Equal(other.entries[i]) {
			return false
		}
	}
	return true
}

// Format writes the schedule back in line format, one entry per line.
func (s *Schedule) Format(w io.Writer) error {
	if s == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	for _, e := range s.entries {
		if _, err := fmt.Fprintln(bw, e.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
