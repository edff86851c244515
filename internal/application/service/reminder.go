package service

import (
	"context"

	"remindme/internal/application/dto"
)

// ReminderService defines the interface for reminder CRUD business logic.
type ReminderService interface {
	// CreateReminder validates and persists a new reminder and registers
	// its schedules. It returns the stored representation.
	CreateReminder(ctx context.Context, req dto.CreateReminderRequest) (dto.ReminderResponse, error)
	// ListReminders retrieves every stored reminder, active or not.
	ListReminders(ctx context.Context) ([]dto.ReminderResponse, error)
	// GetReminder retrieves a reminder by its ID.
	GetReminder(ctx context.Context, id uint) (dto.ReminderResponse, error)
	// UpdateReminder replaces a reminder's definition. The acknowledgement
	// cursor is cleared so the new schedule is evaluated from scratch.
	UpdateReminder(ctx context.Context, id uint, req dto.UpdateReminderRequest) (dto.ReminderResponse, error)
	// DeleteReminder removes a reminder and cancels its schedules.
	DeleteReminder(ctx context.Context, id uint) error
	// DeleteReminders removes a batch of reminders and reports how many
	// rows were actually deleted.
	DeleteReminders(ctx context.Context, req dto.BulkDeleteRequest) (dto.BulkDeleteResponse, error)
}
