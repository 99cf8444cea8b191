package scheduler

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"mindtrace.com/mindtrace-server/models"
)

// PostgresStore implements ReminderStore over the shared database handle.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reminderColumns = `id, user_id, title, type, time, date, recurrence,
       enabled, completed, notes, last_triggered, created_at`

func (s *PostgresStore) ListActive() ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE enabled = TRUE AND completed = FALSE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *PostgresStore) ListCompletedRecurring() ([]models.Reminder, error) {
	rows, err := s.db.Query(`
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE completed = TRUE
		  AND enabled = TRUE
		  AND recurrence IN ('daily', 'weekdays', 'weekends', 'weekly', 'custom')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (s *PostgresStore) BulkResetCompleted(ids []int) (int, error) {
	res, err := s.db.Exec(`
		UPDATE reminders
		SET completed = FALSE
		WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}

func (s *PostgresStore) Begin() (TriggerTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &postgresTriggerTx{tx: tx}, nil
}

type postgresTriggerTx struct {
	tx *sql.Tx
}

func (t *postgresTriggerTx) CreateAlert(a models.Alert) error {
	_, err := t.tx.Exec(`
		INSERT INTO alerts (user_id, type, severity, title, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		a.UserID, a.Type, a.Severity, a.Title, a.Message, []byte(a.Data))
	return err
}

func (t *postgresTriggerTx) MarkTriggered(reminderID int, at time.Time) error {
	_, err := t.tx.Exec(`
		UPDATE reminders
		SET last_triggered = $1
		WHERE id = $2`,
		at, reminderID)
	return err
}

func (t *postgresTriggerTx) Commit() error   { return t.tx.Commit() }
func (t *postgresTriggerTx) Rollback() error { return t.tx.Rollback() }

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	var reminders []models.Reminder
	for rows.Next() {
		var r models.Reminder
		var notes sql.NullString
		var lastTriggered sql.NullTime

		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Type, &r.Time,
			&r.Date, &r.Recurrence, &r.Enabled, &r.Completed,
			&notes, &lastTriggered, &r.CreatedAt); err != nil {
			return nil, err
		}

		if notes.Valid {
			r.Notes = &notes.String
		}
		if lastTriggered.Valid {
			t := lastTriggered.Time
			r.LastTriggered = &t
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
