package schedule

import (
	"time"

	"remindme/internal/domain/entity"
)

// Deactivation reasons recorded when the engine retires a reminder.
const (
	ReasonAlreadyAlerted = "already alerted"
	ReasonStale          = "stale/missed"
	ReasonPastEndDate    = "past end_date"
)

// Decision is the outcome of a deactivation policy check.
type Decision struct {
	Deactivate bool
	Reason     string
}

// OneTimeDecision decides whether a one-time reminder's lifecycle is over.
// A one-time reminder retires as soon as its acknowledgement cursor is set,
// since it fired once and must never fire again, or when its event time was
// missed by more than staleThreshold without ever firing.
func OneTimeDecision(r *entity.Reminder, now time.Time, staleThreshold time.Duration) Decision {
	if r.LastAlertTime != nil {
		return Decision{Deactivate: true, Reason: ReasonAlreadyAlerted}
	}
	if r.Date.Before(now.Add(-staleThreshold)) {
		return Decision{Deactivate: true, Reason: ReasonStale}
	}
	return Decision{}
}

// RecurringDecision decides whether a recurring reminder has left its
// recurrence window. nextEventTime is the next cron occurrence strictly
// after now; once it falls past the end date the stream is over.
func RecurringDecision(r *entity.Reminder, nextEventTime time.Time) Decision {
	if r.EndDate != nil && nextEventTime.After(*r.EndDate) {
		return Decision{Deactivate: true, Reason: ReasonPastEndDate}
	}
	return Decision{}
}
