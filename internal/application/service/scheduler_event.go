package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"remindme/internal/application/dto"
	"remindme/internal/domain/entity"
	"remindme/internal/domain/repository"
	"remindme/internal/infrastructure/qstash"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

// registration tracks the callback service ids belonging to one reminder so
// they can be cancelled when the reminder changes or goes away.
type registration struct {
	messageIDs []string
	scheduleID string
}

type eventScheduler struct {
	qstashClient *qstash.Client
	reminderRepo repository.ReminderRepository
	log          logger.Logger
	webhookBase  string
	cleanupCron  string
	now          func() time.Time

	mu            sync.Mutex // Protect registrations access
	registrations map[uint]*registration
}

// NewEventScheduler creates the externally driven SchedulerService: alerts
// are registered with the delayed-callback service and come back as signed
// webhooks. The cleanup sweep runs on cleanupCron via the same service.
func NewEventScheduler(
	qstashClient *qstash.Client,
	reminderRepo repository.ReminderRepository,
	log logger.Logger,
	webhookBase string,
	cleanupCron string,
) SchedulerService {
	return &eventScheduler{
		qstashClient:  qstashClient,
		reminderRepo:  reminderRepo,
		log:           log,
		webhookBase:   strings.TrimRight(webhookBase, "/"),
		cleanupCron:   cleanupCron,
		now:           time.Now,
		registrations: make(map[uint]*registration),
	}
}

// Start makes sure the cleanup schedule exists and re-registers the stored
// reminders. Registrations do not survive a restart of this process, so the
// whole active set is pushed again; deduplication ids keep the callback
// service from double-scheduling alerts it already holds.
func (s *eventScheduler) Start(ctx context.Context) error {
	if err := s.ensureCleanupSchedule(ctx); err != nil {
		// Alert registrations still work without the reaper; keep going.
		s.log.Error("Failed to ensure cleanup schedule", err)
	}
	return s.initializeSchedules(ctx)
}

// Stop is a no-op: registrations live in the external service.
func (s *eventScheduler) Stop() {
	s.log.Info("Event scheduler stopped.")
}

// OnReminderSaved cancels any previous registrations for the reminder and
// registers its current schedule.
func (s *eventScheduler) OnReminderSaved(ctx context.Context, reminder *entity.Reminder) error {
	if err := s.OnReminderDeleted(ctx, reminder.ID); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to cancel stale registrations for reminder %d: %v", reminder.ID, err))
	}
	if !reminder.IsActive || len(reminder.Alerts) == 0 {
		return nil
	}
	if reminder.IsRecurring && reminder.Recurrence != nil {
		return s.registerRecurring(ctx, reminder)
	}
	return s.registerOneTime(ctx, reminder)
}

// OnReminderDeleted cancels every callback registered for the reminder.
func (s *eventScheduler) OnReminderDeleted(ctx context.Context, reminderID uint) error {
	reg, ok := s.takeRegistration(reminderID)
	if !ok {
		return nil
	}
	for _, id := range reg.messageIDs {
		if err := s.qstashClient.CancelMessage(ctx, id); err != nil {
			s.log.Warn(fmt.Sprintf("Failed to cancel message %s for reminder %d: %v", id, reminderID, err))
		}
	}
	if reg.scheduleID != "" {
		if err := s.qstashClient.CancelSchedule(ctx, reg.scheduleID); err != nil {
			s.log.Warn(fmt.Sprintf("Failed to cancel schedule %s for reminder %d: %v", reg.scheduleID, reminderID, err))
		}
	}
	return nil
}

// Healthy always reports true: the event scheduler keeps no background work
// that could fall behind.
func (s *eventScheduler) Healthy() bool {
	return true
}

// registerRecurring installs one cron schedule firing at every occurrence.
// Alert offsets are not applied in event mode; the callback arrives at the
// event time itself.
func (s *eventScheduler) registerRecurring(ctx context.Context, reminder *entity.Reminder) error {
	recurring := true
	body := dto.AlertCallback{ReminderID: reminder.ID, IsRecurring: &recurring}

	scheduleID, err := s.qstashClient.PublishCron(ctx, s.alertURL(), *reminder.Recurrence, body)
	if err != nil {
		return err
	}
	s.storeScheduleID(reminder.ID, scheduleID)
	s.log.Info(fmt.Sprintf("Registered recurring callback for reminder %d on %q (schedule %s)", reminder.ID, *reminder.Recurrence, scheduleID))
	return nil
}

// registerOneTime installs one delayed message per alert that is still in
// the future. Each callback carries isRecurring=false, so the first one to
// arrive fires the reminder and retires it; later ones find it inactive.
func (s *eventScheduler) registerOneTime(ctx context.Context, reminder *entity.Reminder) error {
	now := s.now()
	recurring := false
	registered := 0

	for _, alert := range reminder.Alerts {
		alertInstant := reminder.Date.Add(-alert.Offset())
		delay := alertInstant.Sub(now)
		if delay < 0 {
			continue
		}
		body := dto.AlertCallback{
			ReminderID:  reminder.ID,
			AlertTime:   &alertInstant,
			IsRecurring: &recurring,
		}
		dedupID := fmt.Sprintf("reminder-%d-alert-%d", reminder.ID, alert.ID)
		messageID, err := s.qstashClient.PublishOneShot(ctx, s.alertURL(), body, delay, dedupID)
		if err != nil {
			s.log.Error(fmt.Sprintf("Failed to register alert %d of reminder %d", alert.ID, reminder.ID), err)
			continue
		}
		s.storeMessageID(reminder.ID, messageID)
		registered++
	}

	s.log.Info(fmt.Sprintf("Registered %d one-shot callbacks for reminder %d", registered, reminder.ID))
	return nil
}

// initializeSchedules loads reminders from the DB and registers them on startup.
func (s *eventScheduler) initializeSchedules(ctx context.Context) error {
	s.log.Info("Initializing callback registrations from database...")
	reminders, err := s.reminderRepo.FindActive(ctx)
	if err != nil {
		s.log.Error("Failed to retrieve reminders for initialization", err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	registered := 0
	for _, reminder := range reminders {
		if len(reminder.Alerts) == 0 {
			continue
		}
		if err := s.OnReminderSaved(ctx, reminder); err != nil {
			s.log.Error(fmt.Sprintf("Failed to register reminder %d during init", reminder.ID), err)
			continue
		}
		registered++
	}

	s.log.Info(fmt.Sprintf("Callback initialization complete. Registered: %d of %d active reminders", registered, len(reminders)))
	return nil
}

// ensureCleanupSchedule installs the recurring cleanup callback unless the
// service already holds one for our cleanup endpoint.
func (s *eventScheduler) ensureCleanupSchedule(ctx context.Context) error {
	schedules, err := s.qstashClient.ListSchedules(ctx)
	if err != nil {
		return err
	}
	target := s.cleanupURL()
	for _, sched := range schedules {
		if sched.Destination == target {
			s.log.Info(fmt.Sprintf("Cleanup schedule already registered (%s)", sched.ScheduleID))
			return nil
		}
	}

	scheduleID, err := s.qstashClient.PublishCron(ctx, target, s.cleanupCron, struct{}{})
	if err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Registered cleanup schedule %s on %q", scheduleID, s.cleanupCron))
	return nil
}

func (s *eventScheduler) alertURL() string {
	return s.webhookBase + "/webhooks/reminder-alert"
}

func (s *eventScheduler) cleanupURL() string {
	return s.webhookBase + "/webhooks/cleanup"
}

func (s *eventScheduler) storeMessageID(reminderID uint, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.registrations[reminderID]
	if reg == nil {
		reg = &registration{}
		s.registrations[reminderID] = reg
	}
	reg.messageIDs = append(reg.messageIDs, messageID)
}

func (s *eventScheduler) storeScheduleID(reminderID uint, scheduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.registrations[reminderID]
	if reg == nil {
		reg = &registration{}
		s.registrations[reminderID] = reg
	}
	reg.scheduleID = scheduleID
}

func (s *eventScheduler) takeRegistration(reminderID uint) (*registration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registrations[reminderID]
	if ok {
		delete(s.registrations, reminderID)
	}
	return reg, ok
}
