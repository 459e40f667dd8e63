package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

// fakeLedgerRepo applies payments against an in-memory breakdown with the
// same floor-at-zero semantics as the database update.
type fakeLedgerRepo struct {
	mu       sync.Mutex
	students map[string]*models.Student
}

func newFakeLedgerRepo(students ...*models.Student) *fakeLedgerRepo {
	repo := &fakeLedgerRepo{students: map[string]*models.Student{}}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (f *fakeLedgerRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLedgerRepo) ApplyPayment(_ context.Context, studentID, category string, amount float64) (models.LedgerApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[studentID]
	if !ok {
		return models.LedgerStudentMissing, nil
	}
	remaining, ok := s.FeeBreakdown[category]
	if !ok {
		return models.LedgerCategoryMissing, nil
	}
	next := remaining - amount
	if next < 0 {
		next = 0
	}
	s.FeeBreakdown[category] = next
	return models.LedgerApplied, nil
}

func TestLedgerServiceDues(t *testing.T) {
	repo := newFakeLedgerRepo(&models.Student{
		ID:           "st1",
		FeeBreakdown: models.FeeBreakdown{"tuition": 50000, "scholarships": 8000},
	})
	svc := NewLedgerService(repo, zap.NewNop())

	res, err := svc.Dues(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, "st1", res.StudentID)
	assert.Equal(t, 50000.0, res.DuesByCategory["tuition"])
	assert.Equal(t, 8000.0, res.Scholarship)
	assert.Equal(t, 42000.0, res.TotalDue)
}

func TestLedgerServiceDuesUnknownStudent(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo(), zap.NewNop())

	_, err := svc.Dues(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceApplyPaymentReducesDues(t *testing.T) {
	repo := newFakeLedgerRepo(&models.Student{
		ID:           "st1",
		FeeBreakdown: models.FeeBreakdown{"tuition": 50000, "scholarships": 8000},
	})
	svc := NewLedgerService(repo, zap.NewNop())

	result, err := svc.ApplyPayment(context.Background(), "st1", "tuition", 20000)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerApplied, result)

	res, err := svc.Dues(context.Background(), "st1")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, res.DuesByCategory["tuition"])
	assert.Equal(t, 22000.0, res.TotalDue)
}

func TestLedgerServiceApplyPaymentFloorsAtZero(t *testing.T) {
	repo := newFakeLedgerRepo(&models.Student{
		ID:           "st1",
		FeeBreakdown: models.FeeBreakdown{"library": 3000},
	})
	svc := NewLedgerService(repo, zap.NewNop())

	result, err := svc.ApplyPayment(context.Background(), "st1", "library", 10000)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerApplied, result)
	assert.Equal(t, 0.0, repo.students["st1"].FeeBreakdown["library"])
}

func TestLedgerServiceApplyPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo(), zap.NewNop())

	_, err := svc.ApplyPayment(context.Background(), "st1", "tuition", 0)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLedgerServiceApplyPaymentMissingCategory(t *testing.T) {
	repo := newFakeLedgerRepo(&models.Student{
		ID:           "st1",
		FeeBreakdown: models.FeeBreakdown{"tuition": 50000},
	})
	svc := NewLedgerService(repo, zap.NewNop())

	result, err := svc.ApplyPayment(context.Background(), "st1", "hostel", 5000)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerCategoryMissing, result)
	assert.Equal(t, 50000.0, repo.students["st1"].FeeBreakdown["tuition"])
}

func TestLedgerServiceApplyPaymentMissingStudent(t *testing.T) {
	svc := NewLedgerService(newFakeLedgerRepo(), zap.NewNop())

	result, err := svc.ApplyPayment(context.Background(), "missing", "tuition", 5000)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStudentMissing, result)
}

func TestLedgerServiceConcurrentApplies(t *testing.T) {
	repo := newFakeLedgerRepo(&models.Student{
		ID:           "st1",
		FeeBreakdown: models.FeeBreakdown{"tuition": 50000},
	})
	svc := NewLedgerService(repo, zap.NewNop())

	amounts := []float64{10000, 15000, 20000, 30000}
	var wg sync.WaitGroup
	for _, amount := range amounts {
		wg.Add(1)
		go func(a float64) {
			defer wg.Done()
			_, err := svc.ApplyPayment(context.Background(), "st1", "tuition", a)
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	// 75000 paid against 50000 outstanding: every ordering ends at zero,
	// never negative.
	assert.Equal(t, 0.0, repo.students["st1"].FeeBreakdown["tuition"])
}
