package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

type ledgerStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ApplyPayment(ctx context.Context, studentID, category string, amount float64) (models.LedgerApplyResult, error)
}

// LedgerService exposes the fee ledger: the read-only dues view and the
// apply-payment mutation over a student's fee breakdown.
type LedgerService struct {
	repo   ledgerStudentRepository
	logger *zap.Logger
}

// NewLedgerService constructs a LedgerService instance.
func NewLedgerService(repo ledgerStudentRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, logger: logger}
}

// Dues computes the current dues view from the stored fee breakdown. The
// breakdown already reflects successful payments, so no history replay is
// involved.
func (s *LedgerService) Dues(ctx context.Context, studentID string) (*models.UpcomingDuesResponse, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	return &models.UpcomingDuesResponse{
		StudentID:   student.ID,
		DuesSummary: student.FeeBreakdown.Dues(),
	}, nil
}

// ApplyPayment reduces the outstanding amount of a category, floored at
// zero. Missing students and categories are reported via the result rather
// than an error so callers choose what to surface.
func (s *LedgerService) ApplyPayment(ctx context.Context, studentID, category string, amount float64) (models.LedgerApplyResult, error) {
	if amount <= 0 {
		return models.LedgerApplied, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}

	result, err := s.repo.ApplyPayment(ctx, studentID, category, amount)
	if err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply payment")
	}

	if result != models.LedgerApplied {
		s.logger.Warn("ledger apply skipped",
			zap.String("student_id", studentID),
			zap.String("category", category),
			zap.String("result", result.String()),
		)
	}

	return result, nil
}
