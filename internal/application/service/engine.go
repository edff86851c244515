package service

import (
	"context"

	"remindme/internal/application/dto"
)

// EngineService runs the scheduling passes that decide which reminders fire
// and which are retired.
type EngineService interface {
	// RunTick executes one pass over the active reminders: it retires
	// finished ones and dispatches alerts whose windows opened this tick.
	RunTick(ctx context.Context) error
	// RunCleanup applies only the lifecycle decisions, never dispatching.
	// It reports how many reminders were examined and retired.
	RunCleanup(ctx context.Context) (dto.CleanupResponse, error)
	// FireReminder handles one externally triggered, already verified
	// alert callback.
	FireReminder(ctx context.Context, cb dto.AlertCallback) (dto.FireResponse, error)
}
