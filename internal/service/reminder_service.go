package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

type reminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	ListByParent(ctx context.Context, parentID string) ([]models.Reminder, error)
}

type reminderStudentRepository interface {
	FindOwned(ctx context.Context, id, parentID string) (*models.Student, error)
}

// ReminderService creates and lists fee reminders. Reminders carry no
// derived state.
type ReminderService struct {
	reminders reminderRepository
	students  reminderStudentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReminderService constructs a ReminderService instance.
func NewReminderService(reminders reminderRepository, students reminderStudentRepository, validate *validator.Validate, logger *zap.Logger) *ReminderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{reminders: reminders, students: students, validator: validate, logger: logger}
}

// Create stores a reminder for an owned student.
func (s *ReminderService) Create(ctx context.Context, parentID string, req models.CreateReminderRequest) (*models.Reminder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reminder payload")
	}

	if _, err := s.students.FindOwned(ctx, req.StudentID, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	reminder := &models.Reminder{
		ParentID:  parentID,
		StudentID: req.StudentID,
		Message:   req.Message,
		DueDate:   req.DueDate,
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reminder")
	}

	return reminder, nil
}

// List returns the parent's reminders ordered by due date ascending.
func (s *ReminderService) List(ctx context.Context, parentID string) ([]models.Reminder, error) {
	reminders, err := s.reminders.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reminders")
	}
	return reminders, nil
}
