package service

import (
	"context"
	"fmt"
	"time"

	"remindme/internal/application/dto"
	"remindme/internal/domain/constant"
	"remindme/internal/domain/entity"
	"remindme/internal/domain/repository"
	"remindme/internal/domain/schedule"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
	"remindme/internal/pkg/metrics"
)

type engineService struct {
	reminderRepo   repository.ReminderRepository
	dispatcher     DispatcherService
	log            logger.Logger
	tickInterval   time.Duration
	staleThreshold time.Duration
	now            func() time.Time
}

// EngineOption configures the engine service.
type EngineOption func(*engineService)

// WithClock overrides the engine's time source so tests can drive the tick
// instants.
func WithClock(now func() time.Time) EngineOption {
	return func(s *engineService) {
		s.now = now
	}
}

// NewEngineService creates a new instance of EngineService implementation.
func NewEngineService(
	reminderRepo repository.ReminderRepository,
	dispatcher DispatcherService,
	log logger.Logger,
	tickInterval time.Duration,
	staleThreshold time.Duration,
	opts ...EngineOption,
) EngineService {
	s := &engineService{
		reminderRepo:   reminderRepo,
		dispatcher:     dispatcher,
		log:            log,
		tickInterval:   tickInterval,
		staleThreshold: staleThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunTick executes one pass over the active reminders.
func (s *engineService) RunTick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.ObserveTickDuration(time.Since(start).Seconds())
	}()
	metrics.IncTick()

	now := s.now()
	reminders, err := s.reminderRepo.FindActive(ctx)
	if err != nil {
		metrics.IncTickError()
		s.log.Error("Failed to load active reminders for tick", err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	for _, r := range reminders {
		if len(r.Alerts) == 0 {
			continue
		}
		eventTime, live := s.evaluate(ctx, r, now)
		if !live {
			continue
		}
		alert, due := schedule.NextDueAlert(r, eventTime, now, s.tickInterval)
		if !due {
			continue
		}
		s.log.Debug(fmt.Sprintf("Alert %d (offset %dms) of reminder %d is due", alert.ID, alert.OffsetMs, r.ID))
		// A failed acknowledgement write is not retried within the
		// tick; the reminder stays eligible on the next pass.
		_ = s.fireAndAck(ctx, r, now)
	}
	return nil
}

// RunCleanup retires finished reminders without dispatching anything. It is
// the same walk as RunTick cut short before alert selection, intended to run
// at low frequency and, in event mode, to be the only reaper.
func (s *engineService) RunCleanup(ctx context.Context) (dto.CleanupResponse, error) {
	now := s.now()
	reminders, err := s.reminderRepo.FindActive(ctx)
	if err != nil {
		s.log.Error("Failed to load active reminders for cleanup", err)
		return dto.CleanupResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	resp := dto.CleanupResponse{}
	for _, r := range reminders {
		if len(r.Alerts) == 0 {
			continue
		}
		resp.Checked++
		var d schedule.Decision
		if r.IsRecurring && r.Recurrence != nil {
			eventTime, err := schedule.NextOccurrence(*r.Recurrence, now)
			if err != nil {
				s.log.Warn(fmt.Sprintf("Skipping reminder %d with unparseable recurrence %q", r.ID, *r.Recurrence))
				continue
			}
			d = schedule.RecurringDecision(r, eventTime)
		} else {
			d = schedule.OneTimeDecision(r, now, s.staleThreshold)
		}
		if d.Deactivate && s.deactivate(ctx, r, d.Reason) {
			resp.Deactivated++
		}
	}
	s.log.Info(fmt.Sprintf("Cleanup sweep checked %d reminders, deactivated %d", resp.Checked, resp.Deactivated))
	return resp, nil
}

// FireReminder handles one externally triggered alert callback.
func (s *engineService) FireReminder(ctx context.Context, cb dto.AlertCallback) (dto.FireResponse, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, cb.ReminderID)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to load reminder %d for external trigger", cb.ReminderID), err)
		return dto.FireResponse{}, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	if reminder == nil {
		s.log.Warn(fmt.Sprintf("External trigger for unknown reminder %d", cb.ReminderID))
		return dto.FireResponse{
			Status: constant.FireStatusSkipped.String(),
			Reason: constant.SkipReasonNotFound,
		}, nil
	}
	if !reminder.IsActive {
		return dto.FireResponse{
			Status: constant.FireStatusSkipped.String(),
			Reason: constant.SkipReasonInactive,
		}, nil
	}

	if err := s.fireAndAck(ctx, reminder, s.now()); err != nil {
		return dto.FireResponse{}, err
	}

	// A one-shot registration explicitly marked non-recurring has no
	// further callbacks coming for this reminder, so retire it now. An
	// absent hint leaves the stored reminder to the cleanup sweep.
	if cb.IsRecurring != nil && !*cb.IsRecurring && !reminder.IsRecurring {
		if !s.deactivate(ctx, reminder, schedule.ReasonAlreadyAlerted) {
			return dto.FireResponse{}, fmt.Errorf("%w: reminder %d fired but could not be retired", appErrors.ErrDatabaseOperation, reminder.ID)
		}
	}

	return dto.FireResponse{
		Status:        constant.FireStatusOK.String(),
		ReminderTitle: reminder.Title,
	}, nil
}

// evaluate applies the lifecycle policy to r. When the reminder stays live it
// returns the event time its alert offsets are measured against: the stored
// date for one-time reminders, the next cron occurrence strictly after now
// for recurring ones. A recurring reminder without an expression is treated
// as one-time.
func (s *engineService) evaluate(ctx context.Context, r *entity.Reminder, now time.Time) (time.Time, bool) {
	if r.IsRecurring && r.Recurrence != nil {
		eventTime, err := schedule.NextOccurrence(*r.Recurrence, now)
		if err != nil {
			s.log.Warn(fmt.Sprintf("Skipping reminder %d with unparseable recurrence %q", r.ID, *r.Recurrence))
			return time.Time{}, false
		}
		if d := schedule.RecurringDecision(r, eventTime); d.Deactivate {
			s.deactivate(ctx, r, d.Reason)
			return time.Time{}, false
		}
		return eventTime, true
	}

	if d := schedule.OneTimeDecision(r, now, s.staleThreshold); d.Deactivate {
		s.deactivate(ctx, r, d.Reason)
		return time.Time{}, false
	}
	return r.Date, true
}

// fireAndAck dispatches the reminder and then moves the acknowledgement
// cursor to now. The cursor is written after dispatch so that a crash in
// between re-fires rather than drops (at-least-once).
func (s *engineService) fireAndAck(ctx context.Context, r *entity.Reminder, now time.Time) error {
	s.dispatcher.Dispatch(ctx, r)
	if err := s.reminderRepo.SetLastAlertTime(ctx, r.ID, now); err != nil {
		s.log.Error(fmt.Sprintf("Failed to acknowledge reminder %d after dispatch", r.ID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	metrics.IncFired()
	s.log.Info(fmt.Sprintf("Fired reminder %d (%s)", r.ID, r.Title))
	return nil
}

func (s *engineService) deactivate(ctx context.Context, r *entity.Reminder, reason string) bool {
	if err := s.reminderRepo.Deactivate(ctx, r.ID); err != nil {
		s.log.Error(fmt.Sprintf("Failed to deactivate reminder %d (%s)", r.ID, reason), err)
		return false
	}
	metrics.IncDeactivated(reason)
	s.log.Info(fmt.Sprintf("Deactivated reminder %d: %s", r.ID, reason))
	return true
}
