package models

import "time"

// Reminder is a timestamped notice attached to a student. Pure record.
type Reminder struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Message   string    `db:"message" json:"message"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateReminderRequest creates a reminder for an owned student.
type CreateReminderRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}
