// Package schedule holds the pure scheduling rules of the reminder engine:
// computing cron occurrences, deciding when a reminder's lifecycle is over,
// and selecting which alert of a reminder is due on a given tick. Nothing in
// this package touches storage or the clock; callers pass instants in.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Recurrence expressions are standard 5-field cron, always interpreted in
// UTC regardless of the process timezone.
const cronTimezone = "CRON_TZ=UTC "

// NextOccurrence parses a standard 5-field cron expression and returns the
// smallest instant strictly greater than after that matches it, in UTC.
func NextOccurrence(expr string, after time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(cronTimezone + expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	next := sched.Next(after.UTC())
	if next.IsZero() {
		// robfig/cron gives up after five years without a match.
		return time.Time{}, fmt.Errorf("cron %q has no upcoming occurrence", expr)
	}
	return next, nil
}

// ValidateExpr reports whether expr is an acceptable recurrence expression.
func ValidateExpr(expr string) error {
	if _, err := cron.ParseStandard(cronTimezone + expr); err != nil {
		return fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return nil
}
