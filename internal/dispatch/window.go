package dispatch

import (
	"fmt"
	"strings"
	"time"
)

// Window is a daily [Start, End) time-of-day range in minutes.
// Start > End wraps across midnight; Start == End is empty.
type Window struct {
	Start int
	End   int
}

// ParseWindow parses two "HH:MM" strings. Two empty strings give an
// empty window.
func ParseWindow(start, end string) (Window, error) {
	if strings.TrimSpace(start) == "" && strings.TrimSpace(end) == "" {
		return Window{}, nil
	}
	s, err := parseHHMM(start)
	if err != nil {
		return Window{}, err
	}
	e, err := parseHHMM(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Empty() bool { return w.Start == w.End }

// Contains checks whether tMins is in [start, end) on a 24h clock.
func (w Window) Contains(tMins int) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return tMins >= w.Start && tMins < w.End
	}
	// wrap
	return tMins >= w.Start || tMins < w.End
}

// minuteOfDay places a record on the clock. Records without a timestamp
// are assumed to start at midnight of day zero.
func minuteOfDay(ts time.Time, index int, stepHours float64) int {
	if !ts.IsZero() {
		return ts.Hour()*60 + ts.Minute()
	}
	mins := int(float64(index) * stepHours * 60)
	return ((mins % 1440) + 1440) % 1440
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(parts[0], "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}
