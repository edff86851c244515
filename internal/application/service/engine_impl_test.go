package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remindme/internal/application/dto"
	"remindme/internal/domain/constant"
	"remindme/internal/domain/entity"
	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

// mockReminderRepo implements repository.ReminderRepository for testing.
type mockReminderRepo struct {
	mu              sync.Mutex
	reminders       map[uint]*entity.Reminder
	nextID          uint
	findActiveErr   error
	setLastAlertErr error
	deactivateErr   error
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{
		reminders: make(map[uint]*entity.Reminder),
		nextID:    1,
	}
}

func (m *mockReminderRepo) add(r *entity.Reminder) *entity.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == 0 {
		r.ID = m.nextID
	}
	if r.ID >= m.nextID {
		m.nextID = r.ID + 1
	}
	m.reminders[r.ID] = r
	return r
}

func (m *mockReminderRepo) get(id uint) *entity.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reminders[id]
}

func (m *mockReminderRepo) FindAll(ctx context.Context) ([]*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*entity.Reminder
	for _, r := range m.reminders {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockReminderRepo) FindActive(ctx context.Context) ([]*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findActiveErr != nil {
		return nil, m.findActiveErr
	}
	var result []*entity.Reminder
	for _, r := range m.reminders {
		if r.IsActive {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockReminderRepo) FindByID(ctx context.Context, id uint) (*entity.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reminders[id], nil
}

func (m *mockReminderRepo) Create(ctx context.Context, reminder *entity.Reminder) (uint, error) {
	m.add(reminder)
	return reminder.ID, nil
}

func (m *mockReminderRepo) Update(ctx context.Context, id uint, reminder *entity.Reminder) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reminders[id]; !ok {
		return false, nil
	}
	reminder.ID = id
	m.reminders[id] = reminder
	return true, nil
}

func (m *mockReminderRepo) Delete(ctx context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reminders[id]; !ok {
		return false, nil
	}
	delete(m.reminders, id)
	return true, nil
}

func (m *mockReminderRepo) DeleteBulk(ctx context.Context, ids []uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, id := range ids {
		if _, ok := m.reminders[id]; ok {
			delete(m.reminders, id)
			count++
		}
	}
	return count, nil
}

func (m *mockReminderRepo) Deactivate(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	if r, ok := m.reminders[id]; ok {
		r.IsActive = false
	}
	return nil
}

func (m *mockReminderRepo) SetLastAlertTime(ctx context.Context, id uint, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setLastAlertErr != nil {
		return m.setLastAlertErr
	}
	if r, ok := m.reminders[id]; ok {
		stamp := t
		r.LastAlertTime = &stamp
	}
	return nil
}

// mockDispatcher records which reminders were dispatched.
type mockDispatcher struct {
	mu    sync.Mutex
	calls []uint
}

func (m *mockDispatcher) Dispatch(ctx context.Context, reminder *entity.Reminder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, reminder.ID)
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func newTestEngine(repo *mockReminderRepo, disp *mockDispatcher, now func() time.Time) EngineService {
	return NewEngineService(
		repo,
		disp,
		logger.NewWithWriter(io.Discard),
		3*time.Second,
		time.Hour,
		WithClock(now),
	)
}

func TestRunTickFiresDueOneTimeAlert(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 9, 59, 0, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 1, disp.count())
	stored := repo.get(r.ID)
	require.NotNil(t, stored.LastAlertTime)
	assert.True(t, stored.LastAlertTime.Equal(now), "cursor moves to the tick instant, not the alert instant")
	assert.True(t, stored.IsActive, "retirement waits for the next pass")
}

func TestRunTickRetiresFiredOneTimeOnNextPass(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 9, 59, 0, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))
	require.Equal(t, 1, disp.count())

	now = now.Add(3 * time.Second)
	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 1, disp.count(), "a one-time reminder fires exactly once")
	assert.False(t, repo.get(r.ID).IsActive)
}

func TestRunTickRetiresStaleOneTime(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 10, 0, 1, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Missed meeting",
		Description: "Should never fire",
		Date:        time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 0, disp.count(), "stale reminders never fire late")
	assert.False(t, repo.get(r.ID).IsActive)
	assert.Nil(t, repo.get(r.ID).LastAlertTime)
}

func TestRunTickRecurringNotDueBeforeWindow(t *testing.T) {
	// Acknowledged at 10:00, the */5 recurrence is next due at 10:05.
	// Half a second early the alert window has not opened.
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 10, 4, 59, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:         "Stand-up",
		Description:   "Every five minutes",
		Date:          time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:        entity.AlertList{{ID: 1, OffsetMs: 0}},
		IsRecurring:   true,
		Recurrence:    strPtr("*/5 * * * *"),
		StartDate:     timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		LastAlertTime: timePtr(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)),
		IsActive:      true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 0, disp.count())
	assert.True(t, repo.get(r.ID).LastAlertTime.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))
}

func TestRunTickFiresRecurringInsideWindow(t *testing.T) {
	// The one-minute-before alert of the 10:05 occurrence comes due at
	// 10:04:00; the tick lands half a second later.
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 10, 4, 0, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Stand-up",
		Description: "Every five minutes",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsRecurring: true,
		Recurrence:  strPtr("*/5 * * * *"),
		StartDate:   timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 1, disp.count())
	stored := repo.get(r.ID)
	require.NotNil(t, stored.LastAlertTime)
	assert.True(t, stored.LastAlertTime.Equal(now))
	assert.True(t, stored.IsActive, "recurring reminders stay active after firing")
}

func TestRunTickRetiresRecurringPastEndDate(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Daily report",
		Description: "Weekday mornings",
		Date:        time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsRecurring: true,
		Recurrence:  strPtr("0 9 * * *"),
		StartDate:   timePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:     timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 0, disp.count())
	assert.False(t, repo.get(r.ID).IsActive)
}

func TestRunTickSkipsRemindersWithoutAlerts(t *testing.T) {
	// The alerts-empty guard runs before any lifecycle decision: even a
	// long-stale reminder is left untouched when it has nothing to fire.
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "No alerts",
		Description: "Nothing to fire",
		Date:        time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 0, disp.count())
	assert.True(t, repo.get(r.ID).IsActive)
}

func TestRunTickFiresAtMostOneAlertPerReminder(t *testing.T) {
	// Both alert windows contain the tick instant; only the first listed
	// fires and a single acknowledgement covers the tick.
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 9, 59, 0, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	repo.add(&entity.Reminder{
		Title:       "Flight",
		Description: "Check in",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts: entity.AlertList{
			{ID: 1, OffsetMs: 60000},
			{ID: 2, OffsetMs: 61000},
		},
		IsActive: true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 1, disp.count())
}

func TestRunTickSurfacesStoreReadFailure(t *testing.T) {
	repo := newMockReminderRepo()
	repo.findActiveErr = errors.New("disk gone")
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	err := engine.RunTick(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrDatabaseOperation))
}

func TestRunTickKeepsGoingWhenAckWriteFails(t *testing.T) {
	// A failed cursor write is logged, not retried; the rest of the pass
	// still runs and the tick itself reports success.
	repo := newMockReminderRepo()
	repo.setLastAlertErr = errors.New("disk full")
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 9, 59, 0, 0, time.UTC).Add(500 * time.Millisecond)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	repo.add(&entity.Reminder{
		Title:       "First",
		Description: "Due now",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})
	repo.add(&entity.Reminder{
		Title:       "Second",
		Description: "Also due now",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 2, disp.count())
}

func TestRunTickSkipsUnparseableRecurrence(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Broken",
		Description: "Bad cron",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsRecurring: true,
		Recurrence:  strPtr("not a cron"),
		StartDate:   timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		IsActive:    true,
	})

	require.NoError(t, engine.RunTick(context.Background()))

	assert.Equal(t, 0, disp.count())
	assert.True(t, repo.get(r.ID).IsActive, "a parse failure skips, it does not retire")
}

func TestRunCleanupDeactivatesWithoutDispatching(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	stale := repo.add(&entity.Reminder{
		Title:       "Stale",
		Description: "Missed hours ago",
		Date:        time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})
	healthy := repo.add(&entity.Reminder{
		Title:       "Upcoming",
		Description: "Still ahead",
		Date:        time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})
	ended := repo.add(&entity.Reminder{
		Title:       "Ended",
		Description: "Recurrence window closed",
		Date:        time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsRecurring: true,
		Recurrence:  strPtr("0 9 * * *"),
		StartDate:   timePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:     timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		IsActive:    true,
	})

	resp, err := engine.RunCleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Checked)
	assert.Equal(t, 2, resp.Deactivated)
	assert.Equal(t, 0, disp.count(), "the sweep never dispatches")
	assert.False(t, repo.get(stale.ID).IsActive)
	assert.True(t, repo.get(healthy.ID).IsActive)
	assert.False(t, repo.get(ended.ID).IsActive)
	assert.Nil(t, repo.get(stale.ID).LastAlertTime)
}

func TestFireReminderNotFound(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	resp, err := engine.FireReminder(context.Background(), dto.AlertCallback{ReminderID: 404})
	require.NoError(t, err)

	assert.Equal(t, constant.FireStatusSkipped.String(), resp.Status)
	assert.Equal(t, constant.SkipReasonNotFound, resp.Reason)
	assert.Equal(t, 0, disp.count())
}

func TestFireReminderInactive(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	r := repo.add(&entity.Reminder{
		Title:       "Retired",
		Description: "Already done",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    false,
	})

	resp, err := engine.FireReminder(context.Background(), dto.AlertCallback{ReminderID: r.ID})
	require.NoError(t, err)

	assert.Equal(t, constant.FireStatusSkipped.String(), resp.Status)
	assert.Equal(t, constant.SkipReasonInactive, resp.Reason)
	assert.Equal(t, 0, disp.count())
	assert.Nil(t, repo.get(r.ID).LastAlertTime)
}

func TestFireReminderDispatchesAcksAndRetiresOneTime(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	now := time.Date(2025, 6, 1, 9, 59, 0, 0, time.UTC)
	engine := newTestEngine(repo, disp, func() time.Time { return now })

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	resp, err := engine.FireReminder(context.Background(), dto.AlertCallback{
		ReminderID:  r.ID,
		IsRecurring: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, constant.FireStatusOK.String(), resp.Status)
	assert.Equal(t, "Dentist", resp.ReminderTitle)
	assert.Equal(t, 1, disp.count())
	stored := repo.get(r.ID)
	require.NotNil(t, stored.LastAlertTime)
	assert.True(t, stored.LastAlertTime.Equal(now))
	assert.False(t, stored.IsActive, "an explicit one-shot hint retires the one-time reminder")
}

func TestFireReminderSurfacesAckWriteFailure(t *testing.T) {
	// The webhook caller needs to see the failure so the delivery is
	// retried; the notification itself already went out.
	repo := newMockReminderRepo()
	repo.setLastAlertErr = errors.New("disk full")
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	_, err := engine.FireReminder(context.Background(), dto.AlertCallback{ReminderID: r.ID})
	assert.True(t, errors.Is(err, appErrors.ErrDatabaseOperation))
	assert.Equal(t, 1, disp.count(), "dispatch precedes the acknowledgement write")
}

func TestFireReminderSurfacesRetireFailure(t *testing.T) {
	repo := newMockReminderRepo()
	repo.deactivateErr = errors.New("disk full")
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	_, err := engine.FireReminder(context.Background(), dto.AlertCallback{
		ReminderID:  r.ID,
		IsRecurring: boolPtr(false),
	})
	assert.True(t, errors.Is(err, appErrors.ErrDatabaseOperation))
}

func TestFireReminderKeepsRecurringActive(t *testing.T) {
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	r := repo.add(&entity.Reminder{
		Title:       "Stand-up",
		Description: "Every morning",
		Date:        time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsRecurring: true,
		Recurrence:  strPtr("0 9 * * *"),
		StartDate:   timePtr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		IsActive:    true,
	})

	resp, err := engine.FireReminder(context.Background(), dto.AlertCallback{
		ReminderID:  r.ID,
		IsRecurring: boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, constant.FireStatusOK.String(), resp.Status)
	assert.Equal(t, 1, disp.count())
	assert.True(t, repo.get(r.ID).IsActive)
}

func TestFireReminderWithoutHintLeavesLifecycleToCleanup(t *testing.T) {
	// A callback with no isRecurring hint must not guess: the reminder
	// fires and stays active until the sweep retires it.
	repo := newMockReminderRepo()
	disp := &mockDispatcher{}
	engine := newTestEngine(repo, disp, time.Now)

	r := repo.add(&entity.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Alerts:      entity.AlertList{{ID: 1, OffsetMs: 60000}},
		IsActive:    true,
	})

	resp, err := engine.FireReminder(context.Background(), dto.AlertCallback{ReminderID: r.ID})
	require.NoError(t, err)

	assert.Equal(t, constant.FireStatusOK.String(), resp.Status)
	assert.Equal(t, 1, disp.count())
	assert.True(t, repo.get(r.ID).IsActive)
}
