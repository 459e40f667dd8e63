package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sfp-api/internal/models"
)

// ReminderRepository provides database access for reminders.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new instance of ReminderRepository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create inserts a new reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reminders (id, parent_id, student_id, message, due_date, created_at) VALUES (:id, :parent_id, :student_id, :message, :due_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reminder); err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// ListByParent returns the parent's reminders ordered by due date ascending.
func (r *ReminderRepository) ListByParent(ctx context.Context, parentID string) ([]models.Reminder, error) {
	const query = `SELECT id, parent_id, student_id, message, due_date, created_at FROM reminders WHERE parent_id = $1 ORDER BY due_date ASC`
	reminders := make([]models.Reminder, 0)
	if err := r.db.SelectContext(ctx, &reminders, query, parentID); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}
