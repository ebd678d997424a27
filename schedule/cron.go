// Package schedule runs solutions on cron expressions: a UTC-only
// expression parser and a polling scheduler that fires due entries
// with skip-on-overlap semantics.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// fiveFieldParser accepts the standard minute..day-of-week form,
// without seconds and without descriptors.
var fiveFieldParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// NextRunUTC returns the next fire time after now for a UTC cron
// expression.
func NextRunUTC(expr string, now time.Time) (time.Time, error) {
	sched, err := ParseUTC(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now.UTC()), nil
}

// ParseUTC parses a five-field cron expression. All schedules
// evaluate in UTC; CRON_TZ and TZ prefixes are rejected rather than
// honored.
func ParseUTC(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("schedule: empty cron expression")
	}
	if hasTimezonePrefix(expr) {
		return nil, errors.New("schedule: timezone prefixes are not supported, schedules run in UTC")
	}

	sched, err := fiveFieldParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule: parse %q: %w", expr, err)
	}
	return sched, nil
}

func hasTimezonePrefix(expr string) bool {
	upper := strings.ToUpper(expr)
	return strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=")
}
