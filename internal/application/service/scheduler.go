package service

import (
	"context"

	"remindme/internal/domain/entity"
)

// SchedulerService drives the engine in one of the two deployment modes:
// the polling implementation ticks the engine on a fixed interval, the
// event implementation registers alerts with an external delayed-callback
// service and lets verified webhooks fire them.
type SchedulerService interface {
	// Start begins driving the engine. For the polling mode this starts
	// the tick loop; for the event mode it re-registers the stored
	// reminders with the callback service.
	Start(ctx context.Context) error
	// Stop halts background work, letting an in-progress tick finish.
	Stop()
	// OnReminderSaved keeps external registrations in step with a created
	// or replaced reminder.
	OnReminderSaved(ctx context.Context, reminder *entity.Reminder) error
	// OnReminderDeleted cancels any registrations for a removed reminder.
	OnReminderDeleted(ctx context.Context, reminderID uint) error
	// Healthy reports whether the driver is making progress.
	Healthy() bool
}
