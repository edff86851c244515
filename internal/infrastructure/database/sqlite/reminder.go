package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"remindme/internal/domain/entity"
	"remindme/internal/domain/repository"
)

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new instance of ReminderRepository.
func NewReminderRepository(db *gorm.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

// FindAll retrieves all reminders ordered by id.
func (r *reminderRepository) FindAll(ctx context.Context) ([]*entity.Reminder, error) {
	var reminders []*entity.Reminder
	if err := r.db.WithContext(ctx).Order("id asc").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to find all reminders: %w", err)
	}
	return reminders, nil
}

// FindActive retrieves the working set of one scheduling pass.
func (r *reminderRepository) FindActive(ctx context.Context) ([]*entity.Reminder, error) {
	var reminders []*entity.Reminder
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id asc").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to find active reminders: %w", err)
	}
	return reminders, nil
}

// FindByID retrieves a reminder by its ID. Returns (nil, nil) when no row exists.
func (r *reminderRepository) FindByID(ctx context.Context, id uint) (*entity.Reminder, error) {
	var reminder entity.Reminder
	if err := r.db.WithContext(ctx).First(&reminder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("🔴 ERROR: failed to find reminder by id %d: %w", id, err)
	}
	return &reminder, nil
}

// Create creates a new reminder. Returns the ID of the created reminder.
func (r *reminderRepository) Create(ctx context.Context, reminder *entity.Reminder) (uint, error) {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return 0, fmt.Errorf("🔴 ERROR: failed to create reminder %q: %w", reminder.Title, err)
	}
	return reminder.ID, nil
}

// Update replaces every column of the stored reminder, so fields the caller
// left unset (the acknowledgement cursor in particular) are written back as
// NULL. A plain Save would re-create a deleted row instead of reporting it
// missing.
func (r *reminderRepository) Update(ctx context.Context, id uint, reminder *entity.Reminder) (bool, error) {
	reminder.ID = id
	res := r.db.WithContext(ctx).Model(reminder).Select("*").Omit("id").Updates(reminder)
	if res.Error != nil {
		return false, fmt.Errorf("🔴 ERROR: failed to update reminder %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete deletes a reminder by its ID. Reports whether a row existed.
func (r *reminderRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&entity.Reminder{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("🔴 ERROR: failed to delete reminder %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteBulk deletes every reminder whose id is in ids and returns the number
// of rows removed. IDs without a row are skipped, not errors.
func (r *reminderRepository) DeleteBulk(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&entity.Reminder{}, ids)
	if res.Error != nil {
		return 0, fmt.Errorf("🔴 ERROR: failed to bulk delete reminders: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Deactivate clears is_active. Deactivating a missing or already inactive
// reminder is a no-op.
func (r *reminderRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&entity.Reminder{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return fmt.Errorf("🔴 ERROR: failed to deactivate reminder %d: %w", id, res.Error)
	}
	return nil
}

// SetLastAlertTime overwrites the acknowledgement cursor of the reminder.
func (r *reminderRepository) SetLastAlertTime(ctx context.Context, id uint, t time.Time) error {
	res := r.db.WithContext(ctx).Model(&entity.Reminder{}).Where("id = ?", id).Update("last_alert_time", t)
	if res.Error != nil {
		return fmt.Errorf("🔴 ERROR: failed to set last alert time for reminder %d: %w", id, res.Error)
	}
	return nil
}
