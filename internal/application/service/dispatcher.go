package service

import (
	"context"

	"remindme/internal/domain/entity"
)

// Sender delivers one rendered message to a single address.
type Sender interface {
	Send(ctx context.Context, address, subject, body string) error
}

// DispatcherService fans a fired reminder out to its contact list.
type DispatcherService interface {
	// Dispatch sends the reminder to every email contact. Per-contact
	// failures are logged and swallowed; Dispatch never reports an error
	// to the caller.
	Dispatch(ctx context.Context, reminder *entity.Reminder)
}
