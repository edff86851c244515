package errors

import "errors"

// Custom application errors
var (
	ErrReminderNotFound  = errors.New("reminder not found")             // Lookup by id matched no row
	ErrValidation        = errors.New("invalid reminder payload")       // Create/update rejected at the CRUD boundary
	ErrCronParse         = errors.New("invalid cron expression")        // Recurrence expression did not parse
	ErrDatabaseOperation = errors.New("database operation failed")      // Generic storage error
	ErrNotification      = errors.New("notification delivery failed")   // Generic notification transport error
	ErrScheduling        = errors.New("schedule registration failed")   // Delayed-callback service rejected a publish or cancel
	ErrSignatureInvalid  = errors.New("invalid webhook signature")      // Callback signature matched neither signing key
	ErrInternalServer    = errors.New("internal server error")          // Generic internal error
)
