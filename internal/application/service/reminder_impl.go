package service

import (
	"context"
	"fmt"
	"strings"

	"remindme/internal/application/dto"
	"remindme/internal/domain/entity"
	"remindme/internal/domain/repository"
	"remindme/internal/domain/schedule"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

type reminderService struct {
	reminderRepo repository.ReminderRepository
	schedulerSvc SchedulerService
	log          logger.Logger
}

// NewReminderService creates a new instance of ReminderService implementation.
func NewReminderService(
	reminderRepo repository.ReminderRepository,
	schedulerSvc SchedulerService,
	log logger.Logger,
) ReminderService {
	return &reminderService{
		reminderRepo: reminderRepo,
		schedulerSvc: schedulerSvc,
		log:          log,
	}
}

// CreateReminder validates and persists a new reminder and registers its schedules.
func (s *reminderService) CreateReminder(ctx context.Context, req dto.CreateReminderRequest) (dto.ReminderResponse, error) {
	reminder := dto.ToReminderEntity(req)
	if err := validateReminder(reminder); err != nil {
		return dto.ReminderResponse{}, err
	}

	id, err := s.reminderRepo.Create(ctx, reminder)
	if err != nil {
		s.log.Error("Failed to create reminder", err)
		return dto.ReminderResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	if err := s.schedulerSvc.OnReminderSaved(ctx, reminder); err != nil {
		// The reminder is stored either way; registration is repaired on
		// the next save or restart.
		s.log.Error(fmt.Sprintf("Failed to register schedules for reminder %d", id), err)
	}

	s.log.Info(fmt.Sprintf("Created reminder %d (%s)", id, reminder.Title))
	return dto.ToReminderResponse(reminder), nil
}

// ListReminders retrieves every stored reminder.
func (s *reminderService) ListReminders(ctx context.Context) ([]dto.ReminderResponse, error) {
	reminders, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list reminders", err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return dto.ToReminderResponseList(reminders), nil
}

// GetReminder retrieves a reminder by its ID.
func (s *reminderService) GetReminder(ctx context.Context, id uint) (dto.ReminderResponse, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to get reminder %d", id), err)
		return dto.ReminderResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if reminder == nil {
		return dto.ReminderResponse{}, appErrors.ErrReminderNotFound
	}
	return dto.ToReminderResponse(reminder), nil
}

// UpdateReminder replaces a reminder's definition. The acknowledgement cursor
// is cleared by the replacement so the new schedule starts from scratch.
func (s *reminderService) UpdateReminder(ctx context.Context, id uint, req dto.UpdateReminderRequest) (dto.ReminderResponse, error) {
	reminder := &entity.Reminder{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Contacts:    req.Contacts,
		Alerts:      req.Alerts,
		IsRecurring: req.IsRecurring,
		Recurrence:  req.Recurrence,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
	}
	if req.IsActive != nil {
		reminder.IsActive = *req.IsActive
	}
	if err := validateReminder(reminder); err != nil {
		return dto.ReminderResponse{}, err
	}

	existed, err := s.reminderRepo.Update(ctx, id, reminder)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to update reminder %d", id), err)
		return dto.ReminderResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if !existed {
		return dto.ReminderResponse{}, appErrors.ErrReminderNotFound
	}

	if err := s.schedulerSvc.OnReminderSaved(ctx, reminder); err != nil {
		s.log.Error(fmt.Sprintf("Failed to refresh schedules for reminder %d", id), err)
	}

	s.log.Info(fmt.Sprintf("Updated reminder %d (%s)", id, reminder.Title))
	return dto.ToReminderResponse(reminder), nil
}

// DeleteReminder removes a reminder and cancels its schedules.
func (s *reminderService) DeleteReminder(ctx context.Context, id uint) error {
	existed, err := s.reminderRepo.Delete(ctx, id)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to delete reminder %d", id), err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if !existed {
		return appErrors.ErrReminderNotFound
	}

	if err := s.schedulerSvc.OnReminderDeleted(ctx, id); err != nil {
		s.log.Error(fmt.Sprintf("Failed to cancel schedules for reminder %d", id), err)
	}

	s.log.Info(fmt.Sprintf("Deleted reminder %d", id))
	return nil
}

// DeleteReminders removes a batch of reminders.
func (s *reminderService) DeleteReminders(ctx context.Context, req dto.BulkDeleteRequest) (dto.BulkDeleteResponse, error) {
	if len(req.IDs) == 0 {
		return dto.BulkDeleteResponse{}, fmt.Errorf("%w: ids must not be empty", appErrors.ErrValidation)
	}

	deleted, err := s.reminderRepo.DeleteBulk(ctx, req.IDs)
	if err != nil {
		s.log.Error("Failed to bulk delete reminders", err)
		return dto.BulkDeleteResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	for _, id := range req.IDs {
		if err := s.schedulerSvc.OnReminderDeleted(ctx, id); err != nil {
			s.log.Error(fmt.Sprintf("Failed to cancel schedules for reminder %d during bulk delete", id), err)
		}
	}

	s.log.Info(fmt.Sprintf("Bulk deleted %d of %d requested reminders", deleted, len(req.IDs)))
	return dto.BulkDeleteResponse{Deleted: deleted}, nil
}

// validateReminder enforces the data-model constraints shared by create and
// update: non-empty texts, a date, known contact modes, the alert offset
// floor, and a parseable recurrence plus start date when recurring.
func validateReminder(r *entity.Reminder) error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", appErrors.ErrValidation)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", appErrors.ErrValidation)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", appErrors.ErrValidation)
	}
	for _, c := range r.Contacts {
		if !c.Mode.Valid() {
			return fmt.Errorf("%w: unknown contact mode %q", appErrors.ErrValidation, c.Mode)
		}
		if strings.TrimSpace(c.Address) == "" {
			return fmt.Errorf("%w: contact address is required", appErrors.ErrValidation)
		}
	}
	for _, a := range r.Alerts {
		if a.OffsetMs < entity.MinAlertOffsetMs {
			return fmt.Errorf("%w: alert offset must be at least %dms", appErrors.ErrValidation, entity.MinAlertOffsetMs)
		}
	}
	if r.IsRecurring {
		if r.Recurrence == nil || strings.TrimSpace(*r.Recurrence) == "" {
			return fmt.Errorf("%w: recurring reminders require a recurrence expression", appErrors.ErrValidation)
		}
		if err := schedule.ValidateExpr(*r.Recurrence); err != nil {
			return fmt.Errorf("%w: %v", appErrors.ErrCronParse, err)
		}
		if r.StartDate == nil {
			return fmt.Errorf("%w: recurring reminders require a start date", appErrors.ErrValidation)
		}
	}
	return nil
}
