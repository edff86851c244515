package dto

import (
	"time"

	"remindme/internal/domain/entity"
)

// ReminderResponse is the DTO for sending reminder information to the client.
type ReminderResponse struct {
	ID            uint               `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Date          time.Time          `json:"date"`
	Location      *string            `json:"location,omitempty"`
	Contacts      entity.ContactList `json:"contacts"`
	Alerts        entity.AlertList   `json:"alerts"`
	IsRecurring   bool               `json:"isRecurring"`
	Recurrence    *string            `json:"recurrence,omitempty"`
	StartDate     *time.Time         `json:"startDate,omitempty"`
	EndDate       *time.Time         `json:"endDate,omitempty"`
	LastAlertTime *time.Time         `json:"lastAlertTime,omitempty"`
	IsActive      bool               `json:"isActive"`
}

// ToReminderResponse converts an entity.Reminder to a ReminderResponse DTO.
func ToReminderResponse(r *entity.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Date:          r.Date,
		Location:      r.Location,
		Contacts:      r.Contacts,
		Alerts:        r.Alerts,
		IsRecurring:   r.IsRecurring,
		Recurrence:    r.Recurrence,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		LastAlertTime: r.LastAlertTime,
		IsActive:      r.IsActive,
	}
}

// ToReminderResponseList converts a slice of entity.Reminder to a slice of ReminderResponse DTOs.
func ToReminderResponseList(reminders []*entity.Reminder) []ReminderResponse {
	list := make([]ReminderResponse, len(reminders))
	for i, r := range reminders {
		list[i] = ToReminderResponse(r)
	}
	return list
}

// CreateReminderRequest is the DTO for creating a new reminder.
type CreateReminderRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        time.Time          `json:"date"`
	Location    *string            `json:"location,omitempty"`
	Contacts    entity.ContactList `json:"contacts"`
	Alerts      entity.AlertList   `json:"alerts"`
	IsRecurring bool               `json:"isRecurring"`
	Recurrence  *string            `json:"recurrence,omitempty"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`
}

// ToReminderEntity converts a CreateReminderRequest to a fresh entity.Reminder.
func ToReminderEntity(req CreateReminderRequest) *entity.Reminder {
	return &entity.Reminder{
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
}

// UpdateReminderRequest is the DTO for replacing an existing reminder's
// definition. The acknowledgement cursor is reset so the updated schedule
// is evaluated from scratch.
type UpdateReminderRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Date        time.Time          `json:"date"`
	Location    *string            `json:"location,omitempty"`
	Contacts    entity.ContactList `json:"contacts"`
	Alerts      entity.AlertList   `json:"alerts"`
	IsRecurring bool               `json:"isRecurring"`
	Recurrence  *string            `json:"recurrence,omitempty"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`
	IsActive    *bool              `json:"isActive,omitempty"`
}

// BulkDeleteRequest is the DTO for deleting several reminders at once.
type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

// BulkDeleteResponse reports how many reminders a bulk delete removed.
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// AlertCallback is the payload delivered by the external scheduling service
// when a registered alert comes due. AlertTime and IsRecurring are hints the
// service echoes back from registration; absent hints mean the stored
// reminder decides.
type AlertCallback struct {
	ReminderID  uint       `json:"reminderId"`
	AlertTime   *time.Time `json:"alertTime,omitempty"`
	IsRecurring *bool      `json:"isRecurring,omitempty"`
}

// FireResponse is the outcome of an externally triggered alert delivery.
type FireResponse struct {
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	ReminderTitle string `json:"reminderTitle,omitempty"`
}

// CleanupResponse reports the result of a cleanup sweep over active reminders.
type CleanupResponse struct {
	Checked     int `json:"checked"`
	Deactivated int `json:"deactivated"`
}
