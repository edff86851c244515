package service

import (
	"context"
	"fmt"

	"remindme/internal/domain/entity"
	"remindme/internal/pkg/logger"
	"remindme/internal/pkg/metrics"
)

type dispatcherService struct {
	sender Sender
	log    logger.Logger
}

// NewDispatcherService creates a new instance of DispatcherService implementation.
func NewDispatcherService(sender Sender, log logger.Logger) DispatcherService {
	return &dispatcherService{
		sender: sender,
		log:    log,
	}
}

// Dispatch sends the reminder to every email contact.
func (s *dispatcherService) Dispatch(ctx context.Context, reminder *entity.Reminder) {
	for _, contact := range reminder.Contacts {
		if contact.Mode != entity.ModeEmail {
			// Other modes are reserved; no transport ships them yet.
			continue
		}
		if err := s.sender.Send(ctx, contact.Address, reminder.Title, reminder.Description); err != nil {
			s.log.Error(fmt.Sprintf("Failed to send reminder %d to %s", reminder.ID, contact.Address), err)
			metrics.IncNotificationSent("failed")
			continue
		}
		s.log.Info(fmt.Sprintf("Sent reminder %d (%s) to %s", reminder.ID, reminder.Title, contact.Address))
		metrics.IncNotificationSent("sent")
	}
}
