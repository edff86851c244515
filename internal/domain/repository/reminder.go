package repository

import (
	"context"
	"time"

	"remindme/internal/domain/entity"
)

// ReminderRepository defines the interface for reminder data operations.
// Implementations must be safe for concurrent callers; the engine, the
// cleanup sweep and webhook handlers may all hit the store at once.
type ReminderRepository interface {
	// FindAll retrieves all reminders, active or not.
	FindAll(ctx context.Context) ([]*entity.Reminder, error)
	// FindActive retrieves reminders with is_active set, ordered by id.
	// This is the working set of one scheduling tick.
	FindActive(ctx context.Context) ([]*entity.Reminder, error)
	// FindByID retrieves a reminder by its ID. Returns (nil, nil) when the
	// reminder does not exist.
	FindByID(ctx context.Context, id uint) (*entity.Reminder, error)
	// Create persists a new reminder, assigning its ID and defaulting
	// IsActive to true and LastAlertTime to unset. Returns the new ID.
	Create(ctx context.Context, reminder *entity.Reminder) (uint, error)
	// Update replaces the stored reminder with the given one. Reports
	// whether a row with that ID existed.
	Update(ctx context.Context, id uint, reminder *entity.Reminder) (bool, error)
	// Delete removes a reminder. Reports whether a row existed.
	Delete(ctx context.Context, id uint) (bool, error)
	// DeleteBulk removes every reminder whose id is in ids and returns the
	// number of rows actually deleted.
	DeleteBulk(ctx context.Context, ids []uint) (int64, error)
	// Deactivate clears is_active. Idempotent; deactivating an already
	// inactive or missing reminder is not an error.
	Deactivate(ctx context.Context, id uint) error
	// SetLastAlertTime unconditionally overwrites the acknowledgement
	// cursor of the reminder.
	SetLastAlertTime(ctx context.Context, id uint, t time.Time) error
}
