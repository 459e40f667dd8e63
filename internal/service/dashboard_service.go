package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

type dashboardStudentRepository interface {
	FindFirstByParent(ctx context.Context, parentID string) (*models.Student, error)
}

type dashboardPaymentRepository interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Payment, error)
}

// DashboardService serves the parent-facing read views: raw fee breakdown,
// payment history and the computed upcoming dues.
type DashboardService struct {
	students dashboardStudentRepository
	payments dashboardPaymentRepository
	ledger   *LedgerService
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(students dashboardStudentRepository, payments dashboardPaymentRepository, ledger *LedgerService, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, payments: payments, ledger: ledger, cache: cache, metrics: metrics, logger: logger}
}

// FeeBreakdown returns the raw breakdown of the parent's first student.
func (s *DashboardService) FeeBreakdown(ctx context.Context, parentID string) (*models.FeeBreakdownResponse, error) {
	student, err := s.loadStudent(ctx, parentID)
	if err != nil {
		return nil, err
	}

	return &models.FeeBreakdownResponse{
		StudentID:    student.ID,
		Name:         student.Name,
		ClassLabel:   student.ClassLabel,
		FeeBreakdown: student.FeeBreakdown,
	}, nil
}

// PaymentHistory returns the parent's payments, newest first.
func (s *DashboardService) PaymentHistory(ctx context.Context, parentID string) ([]models.Payment, error) {
	payments, err := s.payments.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// UpcomingDues computes the dues view from the current fee breakdown. The
// result is cached per parent; successful payments invalidate it. The bool
// reports whether the cache was hit.
func (s *DashboardService) UpcomingDues(ctx context.Context, parentID string) (*models.UpcomingDuesResponse, bool, error) {
	key := duesCacheKey(parentID)

	var cached models.UpcomingDuesResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	queryStart := time.Now()
	student, err := s.loadStudent(ctx, parentID)
	if err != nil {
		return nil, false, err
	}

	dues, err := s.ledger.Dues(ctx, student.ID)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("dashboard_dues", time.Since(queryStart))
	}
	s.cache.Set(ctx, key, dues)

	return dues, false, nil
}

func (s *DashboardService) loadStudent(ctx context.Context, parentID string) (*models.Student, error) {
	student, err := s.students.FindFirstByParent(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func duesCacheKey(parentID string) string {
	return fmt.Sprintf("dashboard:dues:%s", parentID)
}
