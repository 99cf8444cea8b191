package scheduler

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mindtrace.com/mindtrace-server/models"
)

// 2025-03-03 is a Monday.
func at(day int, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
}

func reminder(id int, typ, hhmm, recurrence string) models.Reminder {
	return models.Reminder{
		ID:         id,
		UserID:     7,
		Title:      "Take pills",
		Type:       typ,
		Time:       hhmm,
		Date:       at(3, 0, 0), // anchored on a Monday
		Recurrence: recurrence,
		Enabled:    true,
	}
}

type fakeStore struct {
	reminders []models.Reminder
	alerts    []models.Alert

	resetCalls int
	resetIDs   []int

	listActiveErr    error
	listCompletedErr error
	resetErr         error
	createAlertErr   error
}

func (f *fakeStore) ListActive() ([]models.Reminder, error) {
	if f.listActiveErr != nil {
		return nil, f.listActiveErr
	}
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.Enabled && !r.Completed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCompletedRecurring() ([]models.Reminder, error) {
	if f.listCompletedErr != nil {
		return nil, f.listCompletedErr
	}
	recurring := map[string]bool{
		"daily": true, "weekdays": true, "weekends": true, "weekly": true, "custom": true,
	}
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.Completed && r.Enabled && recurring[r.Recurrence] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) BulkResetCompleted(ids []int) (int, error) {
	if f.resetErr != nil {
		return 0, f.resetErr
	}
	f.resetCalls++
	f.resetIDs = append(f.resetIDs, ids...)
	n := 0
	for _, id := range ids {
		for i := range f.reminders {
			if f.reminders[i].ID == id && f.reminders[i].Completed {
				f.reminders[i].Completed = false
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeStore) Begin() (TriggerTx, error) {
	return &fakeTx{store: f, triggered: map[int]time.Time{}}, nil
}

type fakeTx struct {
	store      *fakeStore
	alerts     []models.Alert
	triggered  map[int]time.Time
	committed  bool
	rolledBack bool
}

func (t *fakeTx) CreateAlert(a models.Alert) error {
	if t.store.createAlertErr != nil {
		return t.store.createAlertErr
	}
	t.alerts = append(t.alerts, a)
	return nil
}

func (t *fakeTx) MarkTriggered(reminderID int, ts time.Time) error {
	t.triggered[reminderID] = ts
	return nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	t.store.alerts = append(t.store.alerts, t.alerts...)
	for i := range t.store.reminders {
		if ts, ok := t.triggered[t.store.reminders[i].ID]; ok {
			stamp := ts
			t.store.reminders[i].LastTriggered = &stamp
		}
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type captureNotifier struct {
	userIDs []int
	alerts  []models.Alert
}

func (c *captureNotifier) NotifyAlert(userID int, a models.Alert) {
	c.userIDs = append(c.userIDs, userID)
	c.alerts = append(c.alerts, a)
}

func newTestScheduler(store *fakeStore, now time.Time) *Scheduler {
	s := New(store)
	s.Now = func() time.Time { return now }
	return s
}

func TestShouldTrigger(t *testing.T) {
	fired := at(4, 8, 0)

	tests := []struct {
		name   string
		mutate func(r *models.Reminder)
		now    time.Time
		want   bool
	}{
		{"daily at matching time", nil, at(4, 8, 0), true},
		{"daily at wrong time", nil, at(4, 8, 1), false},
		{"disabled never due", func(r *models.Reminder) { r.Enabled = false }, at(4, 8, 0), false},
		{"completed never due", func(r *models.Reminder) { r.Completed = true }, at(4, 8, 0), false},
		{"already fired today", func(r *models.Reminder) { r.LastTriggered = &fired }, at(4, 8, 0), false},
		{"weekly on anchor weekday", func(r *models.Reminder) { r.Recurrence = "weekly" }, at(3, 8, 0), true},
		{"weekly on other weekday", func(r *models.Reminder) { r.Recurrence = "weekly" }, at(4, 8, 0), false},
		{"weekdays on tuesday", func(r *models.Reminder) { r.Recurrence = "weekdays" }, at(4, 8, 0), true},
		{"weekdays on saturday", func(r *models.Reminder) { r.Recurrence = "weekdays" }, at(8, 8, 0), false},
		{"weekends on saturday", func(r *models.Reminder) { r.Recurrence = "weekends" }, at(8, 8, 0), true},
		{"weekends on sunday", func(r *models.Reminder) { r.Recurrence = "weekends" }, at(9, 8, 0), true},
		{"weekends on tuesday", func(r *models.Reminder) { r.Recurrence = "weekends" }, at(4, 8, 0), false},
		{"custom behaves as daily", func(r *models.Reminder) { r.Recurrence = "custom" }, at(4, 8, 0), true},
		{"recurrence case-insensitive", func(r *models.Reminder) { r.Recurrence = "Daily" }, at(4, 8, 0), true},
		{"unknown recurrence fails closed", func(r *models.Reminder) { r.Recurrence = "bogus" }, at(4, 8, 0), false},
		{"empty recurrence fails closed", func(r *models.Reminder) { r.Recurrence = "" }, at(4, 8, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := reminder(1, "medication", "08:00", "daily")
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			if got := ShouldTrigger(r, tt.now); got != tt.want {
				t.Errorf("ShouldTrigger = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFiredToday(t *testing.T) {
	now := at(4, 9, 0)

	if FiredToday(nil, now) {
		t.Error("nil last_triggered should not count as fired")
	}

	earlier := at(4, 0, 30)
	if !FiredToday(&earlier, now) {
		t.Error("a trigger earlier today should count as fired")
	}

	yesterday := at(3, 23, 59)
	if FiredToday(&yesterday, now) {
		t.Error("a trigger yesterday should not count as fired")
	}

	// Instants are compared, not wall clocks: 23:30 UTC yesterday is 00:30
	// today in UTC+1.
	loc := time.FixedZone("UTC+1", 3600)
	localNow := time.Date(2025, 3, 4, 9, 0, 0, 0, loc)
	lateUTC := time.Date(2025, 3, 3, 23, 30, 0, 0, time.UTC)
	if !FiredToday(&lateUTC, localNow) {
		t.Error("UTC timestamp inside the local day should count as fired")
	}
}

func TestAlertSeverity(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"medication", models.SeverityCritical},
		{"appointment", models.SeverityWarning},
		{"meal", models.SeverityInfo},
		{"activity", models.SeverityInfo},
		{"hydration", models.SeverityInfo},
		{"other", models.SeverityInfo},
		{"something-new", models.SeverityInfo},
		{"", models.SeverityInfo},
	}
	for _, tt := range tests {
		if got := AlertSeverity(tt.typ); got != tt.want {
			t.Errorf("AlertSeverity(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestNewReminderAlert(t *testing.T) {
	r := reminder(42, "medication", "08:00", "daily")
	notes := "with water"
	r.Notes = &notes

	a := NewReminderAlert(r)

	if a.UserID != r.UserID {
		t.Errorf("user id = %d, want %d", a.UserID, r.UserID)
	}
	if a.Type != models.AlertTypeReminder {
		t.Errorf("type = %q, want %q", a.Type, models.AlertTypeReminder)
	}
	if a.Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical", a.Severity)
	}
	if a.Title != "Reminder: Take pills" {
		t.Errorf("title = %q", a.Title)
	}
	if a.Message != "It's time for your medication: Take pills" {
		t.Errorf("message = %q", a.Message)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(a.Data, &data); err != nil {
		t.Fatalf("data payload is not valid JSON: %v", err)
	}
	if data["reminder_id"] != float64(42) {
		t.Errorf("data reminder_id = %v", data["reminder_id"])
	}
	if data["reminder_type"] != "medication" {
		t.Errorf("data reminder_type = %v", data["reminder_type"])
	}
	if data["reminder_time"] != "08:00" {
		t.Errorf("data reminder_time = %v", data["reminder_time"])
	}
	if data["notes"] != "with water" {
		t.Errorf("data notes = %v", data["notes"])
	}
}

func TestScanFiresDueReminderOnce(t *testing.T) {
	store := &fakeStore{reminders: []models.Reminder{
		reminder(1, "hydration", "09:00", "daily"),
	}}
	notifier := &captureNotifier{}
	now := at(4, 9, 0) // Tuesday 09:00

	s := newTestScheduler(store, now)
	s.Notifier = notifier
	s.RunPass()

	if len(store.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(store.alerts))
	}
	if store.alerts[0].Severity != models.SeverityInfo {
		t.Errorf("severity = %q, want info", store.alerts[0].Severity)
	}
	if store.reminders[0].LastTriggered == nil || !store.reminders[0].LastTriggered.Equal(now) {
		t.Errorf("last_triggered = %v, want %v", store.reminders[0].LastTriggered, now)
	}
	if len(notifier.alerts) != 1 || notifier.userIDs[0] != 7 {
		t.Errorf("expected one push to user 7, got %v", notifier.userIDs)
	}

	// Same minute again: fired-today guard holds.
	s.RunPass()
	if len(store.alerts) != 1 {
		t.Errorf("second pass in same day fired again: %d alerts", len(store.alerts))
	}
}

func TestScanSkipsNotDueReminders(t *testing.T) {
	store := &fakeStore{reminders: []models.Reminder{
		reminder(1, "meal", "12:00", "daily"),
		reminder(2, "activity", "09:00", "weekends"),
	}}
	s := newTestScheduler(store, at(4, 9, 0)) // Tuesday
	s.RunPass()

	if len(store.alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(store.alerts))
	}
}

func TestScanRollsBackWhenAlertWriteFails(t *testing.T) {
	store := &fakeStore{
		reminders:      []models.Reminder{reminder(1, "medication", "09:00", "daily")},
		createAlertErr: errors.New("disk full"),
	}
	s := newTestScheduler(store, at(4, 9, 0))
	s.RunPass()

	if len(store.alerts) != 0 {
		t.Errorf("expected no committed alerts, got %d", len(store.alerts))
	}
	if store.reminders[0].LastTriggered != nil {
		t.Error("last_triggered must not be set when the alert write fails")
	}

	// Next tick: the store recovered, the reminder fires.
	store.createAlertErr = nil
	s.RunPass()
	if len(store.alerts) != 1 {
		t.Errorf("expected retry to fire, got %d alerts", len(store.alerts))
	}
}

func TestPassSurvivesStoreErrors(t *testing.T) {
	store := &fakeStore{
		reminders:     []models.Reminder{reminder(1, "meal", "09:00", "daily")},
		listActiveErr: errors.New("connection refused"),
	}
	s := newTestScheduler(store, at(4, 9, 0))
	s.RunPass() // must not panic

	store.listActiveErr = nil
	s.RunPass()
	if len(store.alerts) != 1 {
		t.Errorf("expected recovery on next pass, got %d alerts", len(store.alerts))
	}
}

func TestDailyResetRunsOncePerDay(t *testing.T) {
	done := reminder(1, "meal", "12:00", "daily")
	done.Completed = true
	oneShot := reminder(2, "other", "12:00", "once")
	oneShot.Completed = true

	store := &fakeStore{reminders: []models.Reminder{done, oneShot}}
	s := newTestScheduler(store, at(4, 0, 0))

	s.RunPass()
	if store.resetCalls != 1 {
		t.Fatalf("expected 1 reset call, got %d", store.resetCalls)
	}
	if len(store.resetIDs) != 1 || store.resetIDs[0] != 1 {
		t.Errorf("expected only the recurring reminder reset, got %v", store.resetIDs)
	}
	if store.reminders[0].Completed {
		t.Error("recurring reminder should be reset")
	}
	if !store.reminders[1].Completed {
		t.Error("non-recurring reminder must not be reset")
	}

	// Second tick in the same midnight minute: no-op.
	s.RunPass()
	if store.resetCalls != 1 {
		t.Errorf("reset ran twice in one day: %d calls", store.resetCalls)
	}
}

func TestDailyResetOnlyAtMidnight(t *testing.T) {
	done := reminder(1, "meal", "12:00", "daily")
	done.Completed = true
	store := &fakeStore{reminders: []models.Reminder{done}}

	s := newTestScheduler(store, at(4, 0, 1))
	s.RunPass()
	if store.resetCalls != 0 {
		t.Errorf("reset ran outside the 00:00 minute")
	}
}

func TestDailyResetRetriesAfterFailure(t *testing.T) {
	done := reminder(1, "meal", "12:00", "daily")
	done.Completed = true
	store := &fakeStore{
		reminders: []models.Reminder{done},
		resetErr:  errors.New("deadlock"),
	}
	s := newTestScheduler(store, at(4, 0, 0))

	s.RunPass()
	if store.resetCalls != 0 {
		t.Fatal("failed reset should not count")
	}

	// A later tick still inside 00:00 retries because the date was not
	// recorded.
	store.resetErr = nil
	s.RunPass()
	if store.resetCalls != 1 {
		t.Errorf("expected retry within the midnight minute, got %d calls", store.resetCalls)
	}
}

func TestStartStop(t *testing.T) {
	store := &fakeStore{}
	s := New(store)
	s.CheckInterval = 10 * time.Millisecond
	s.Now = func() time.Time { return at(4, 9, 1) }

	s.Start()
	if !s.Running() {
		t.Error("scheduler should report running after Start")
	}
	s.Start() // idempotent

	s.Stop()
	if s.Running() {
		t.Error("scheduler should report stopped after Stop")
	}
	s.Stop() // idempotent
}
