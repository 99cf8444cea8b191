package scheduler

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"mindtrace.com/mindtrace-server/models"
)

// ReminderStore is the scheduler's view of persisted reminders.
type ReminderStore interface {
	// ListActive returns all reminders with enabled = true, completed = false.
	ListActive() ([]models.Reminder, error)
	// ListCompletedRecurring returns all completed, enabled reminders whose
	// recurrence repeats (daily, weekdays, weekends, weekly, custom).
	ListCompletedRecurring() ([]models.Reminder, error)
	// BulkResetCompleted clears the completed flag for the given reminders
	// and returns the number of rows touched.
	BulkResetCompleted(ids []int) (int, error)
	// Begin opens the transactional unit used to fire due reminders.
	Begin() (TriggerTx, error)
}

// TriggerTx groups the alert insert and the last_triggered update for a scan
// pass. Both land on Commit or neither does, which is what keeps a reminder
// from double-firing inside one trigger window.
type TriggerTx interface {
	CreateAlert(a models.Alert) error
	MarkTriggered(reminderID int, at time.Time) error
	Commit() error
	Rollback() error
}

// Notifier delivers a freshly created alert to the user's devices.
// Delivery is best effort and happens after the pass commits.
type Notifier interface {
	NotifyAlert(userID int, a models.Alert)
}

// Scheduler is the background loop that fires due reminders and resets
// completed recurring reminders at the start of each day.
type Scheduler struct {
	Store         ReminderStore
	Notifier      Notifier      // optional
	CheckInterval time.Duration // polling period, default one minute
	Now           func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}

	// lastResetDate ("2006-01-02") guards the daily reset against running
	// more than once per calendar day. Touched only by the loop goroutine.
	lastResetDate string
}

func New(store ReminderStore) *Scheduler {
	return &Scheduler{
		Store:         store,
		CheckInterval: time.Minute,
		Now:           time.Now,
	}
}

// Start launches the polling loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	log.Println("[Scheduler] Reminder scheduler started")
	go s.run(stop)
}

// Stop requests cooperative termination. A pass already in flight runs to
// completion; the loop exits at the next iteration boundary.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	log.Println("[Scheduler] Reminder scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(stop chan struct{}) {
	ticker := time.NewTicker(s.CheckInterval)
	defer ticker.Stop()

	for {
		s.RunPass()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// RunPass executes one reset-then-scan cycle. An error in either half is
// logged and never escalates; the loop (or the cron caller) always survives
// a bad pass.
func (s *Scheduler) RunPass() {
	now := s.Now()

	if err := s.checkDailyReset(now); err != nil {
		log.Printf("[Scheduler] Error resetting daily reminders: %v", err)
	}
	if err := s.checkReminders(now); err != nil {
		log.Printf("[Scheduler] Error checking reminders: %v", err)
	}
}

// checkDailyReset clears the completed flag on recurring reminders once per
// calendar day, in the tick that lands on minute 00:00. A failed reset does
// not record the date, so a later 00:00 tick may retry; a reset missed
// outright stays missed for that day.
func (s *Scheduler) checkDailyReset(now time.Time) error {
	today := now.Format("2006-01-02")
	if s.lastResetDate == today {
		return nil
	}
	if now.Hour() != 0 || now.Minute() != 0 {
		return nil
	}

	reminders, err := s.Store.ListCompletedRecurring()
	if err != nil {
		return err
	}

	if len(reminders) > 0 {
		ids := make([]int, 0, len(reminders))
		for _, r := range reminders {
			ids = append(ids, r.ID)
		}
		n, err := s.Store.BulkResetCompleted(ids)
		if err != nil {
			return err
		}
		log.Printf("[Scheduler] Reset %d completed reminders for new day", n)
	}

	s.lastResetDate = today
	return nil
}

// checkReminders scans active reminders and fires the due ones. All writes
// of one pass share a transaction; a failure rolls the whole pass back and
// the next tick retries.
func (s *Scheduler) checkReminders(now time.Time) error {
	reminders, err := s.Store.ListActive()
	if err != nil {
		return err
	}

	var due []models.Reminder
	for _, r := range reminders {
		if ShouldTrigger(r, now) {
			due = append(due, r)
		}
	}
	if len(due) == 0 {
		return nil
	}

	alerts := make([]models.Alert, len(due))
	for i, r := range due {
		alerts[i] = NewReminderAlert(r)
	}

	tx, err := s.Store.Begin()
	if err != nil {
		return err
	}
	for i, r := range due {
		if err := tx.CreateAlert(alerts[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("create alert for reminder %d: %w", r.ID, err)
		}
		if err := tx.MarkTriggered(r.ID, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("mark reminder %d triggered: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	for i, r := range due {
		log.Printf("[Scheduler] Created alert for reminder %d: %s", r.ID, r.Title)
		if s.Notifier != nil {
			s.Notifier.NotifyAlert(r.UserID, alerts[i])
		}
	}
	return nil
}

// ShouldTrigger reports whether a reminder is due at now. It fails closed:
// disabled, completed, already fired today, time mismatch or an unknown
// recurrence all mean not due.
func ShouldTrigger(r models.Reminder, now time.Time) bool {
	if !r.Enabled || r.Completed {
		return false
	}
	if r.Time != now.Format("15:04") {
		return false
	}
	if FiredToday(r.LastTriggered, now) {
		return false
	}

	switch strings.ToLower(r.Recurrence) {
	case "daily":
		return true
	case "weekly":
		// Same weekday as the reminder's anchor date.
		return now.Weekday() == r.Date.Weekday()
	case "weekdays":
		wd := now.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case "weekends":
		wd := now.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case "custom":
		// No per-day selection is stored for custom reminders yet, so they
		// behave as daily.
		return true
	}
	return false
}

// FiredToday reports whether lastTriggered falls on or after the start of
// the current calendar day. The stored timestamp is converted into now's
// location before comparing so instants from the database line up with
// local midnight.
func FiredToday(lastTriggered *time.Time, now time.Time) bool {
	if lastTriggered == nil {
		return false
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !lastTriggered.In(now.Location()).Before(dayStart)
}

var severityByType = map[string]string{
	models.ReminderTypeMedication:  models.SeverityCritical,
	models.ReminderTypeAppointment: models.SeverityWarning,
	models.ReminderTypeMeal:        models.SeverityInfo,
	models.ReminderTypeActivity:    models.SeverityInfo,
	models.ReminderTypeHydration:   models.SeverityInfo,
	models.ReminderTypeOther:       models.SeverityInfo,
}

// AlertSeverity maps a reminder type to the severity of the alert it
// produces. Unknown types default to info.
func AlertSeverity(reminderType string) string {
	if sev, ok := severityByType[reminderType]; ok {
		return sev
	}
	return models.SeverityInfo
}

// NewReminderAlert builds the alert record for a due reminder. The data
// payload carries enough of the reminder for downstream consumers; the
// alert itself never changes after creation.
func NewReminderAlert(r models.Reminder) models.Alert {
	data, _ := json.Marshal(map[string]interface{}{
		"reminder_id":   r.ID,
		"reminder_type": r.Type,
		"reminder_time": r.Time,
		"notes":         r.Notes,
	})

	return models.Alert{
		UserID:   r.UserID,
		Type:     models.AlertTypeReminder,
		Severity: AlertSeverity(r.Type),
		Title:    fmt.Sprintf("Reminder: %s", r.Title),
		Message:  fmt.Sprintf("It's time for your %s: %s", r.Type, r.Title),
		Data:     data,
	}
}
