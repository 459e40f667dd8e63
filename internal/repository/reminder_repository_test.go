package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sfp-api/internal/models"
)

func TestReminderRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReminderRepository(db)

	mock.ExpectExec("INSERT INTO reminders").
		WithArgs(sqlmock.AnyArg(), "p1", "st1", "Tuition due soon.", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reminder := &models.Reminder{ParentID: "p1", StudentID: "st1", Message: "Tuition due soon.", DueDate: time.Now().Add(72 * time.Hour)}
	err := repo.Create(context.Background(), reminder)
	require.NoError(t, err)
	assert.NotEmpty(t, reminder.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepositoryListByParentSoonestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReminderRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "parent_id", "student_id", "message", "due_date", "created_at"}).
		AddRow("r1", "p1", "st1", "Library fee failed.", now.AddDate(0, 0, 5), now).
		AddRow("r2", "p1", "st1", "Tuition balance due.", now.AddDate(0, 0, 10), now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, parent_id, student_id, message, due_date, created_at FROM reminders WHERE parent_id = $1 ORDER BY due_date ASC")).
		WithArgs("p1").
		WillReturnRows(rows)

	reminders, err := repo.ListByParent(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	assert.True(t, reminders[0].DueDate.Before(reminders[1].DueDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}
