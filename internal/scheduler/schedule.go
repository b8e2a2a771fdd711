package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule yields the next run time after a given instant.
type Schedule interface {
	Next(after time.Time) time.Time
}

type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

type hourly struct{}

func (hourly) Next(t time.Time) time.Time { return t.Add(time.Hour).Truncate(time.Hour) }

type daily struct{}

func (daily) Next(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

// ParseSchedule accepts "@every <duration>" (Go durations plus a "d" day
// suffix), "@hourly" and "@daily".
func ParseSchedule(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "@hourly":
		return hourly{}, nil
	case expr == "@daily":
		return daily{}, nil
	case strings.HasPrefix(expr, "@every "):
		d, err := parseEvery(strings.TrimSpace(strings.TrimPrefix(expr, "@every ")))
		if err != nil {
			return nil, err
		}
		return every(d), nil
	default:
		return nil, fmt.Errorf("unsupported schedule %q: use @every <duration>, @hourly or @daily", expr)
	}
}

func parseEvery(s string) (time.Duration, error) {
	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
