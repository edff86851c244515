package schedule

import (
	"time"

	"remindme/internal/domain/entity"
)

// NextDueAlert selects the alert of r that is due on this tick, if any.
//
// An alert is due when now has entered the half-open window
// [alertInstant, alertInstant+tickInterval) for
// alertInstant = eventTime - offset. For recurring reminders an alert whose
// instant is already covered by the acknowledgement cursor (lastAlertTime at
// or after alertInstant) was handled on an earlier tick and is skipped.
//
// At most one alert fires per reminder per tick: the first due alert in
// slice order wins, so the ordering of r.Alerts is observable. Acknowledging
// it with now moves the cursor past every window that now has entered.
func NextDueAlert(r *entity.Reminder, eventTime, now time.Time, tickInterval time.Duration) (entity.Alert, bool) {
	for _, alert := range r.Alerts {
		alertInstant := eventTime.Add(-alert.Offset())
		diff := now.Sub(alertInstant)
		if diff < 0 || diff >= tickInterval {
			continue
		}
		if r.IsRecurring && r.LastAlertTime != nil && !r.LastAlertTime.Before(alertInstant) {
			continue
		}
		return alert, true
	}
	return entity.Alert{}, false
}
