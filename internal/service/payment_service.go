package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
)

type paymentStudentRepository interface {
	FindOwned(ctx context.Context, id, parentID string) (*models.Student, error)
}

type paymentRepository interface {
	CreateWithLedger(ctx context.Context, payment *models.Payment) (models.LedgerApplyResult, error)
	FindOwned(ctx context.Context, id, parentID string) (*models.Payment, error)
	ListSuccessfulByParent(ctx context.Context, parentID string) ([]models.Receipt, error)
}

// PaymentService records payment attempts and keeps the fee ledger in step
// with successful ones. Records are immutable: the outcome is decided at
// creation time and never revisited. Retried calls are not deduplicated.
type PaymentService struct {
	payments  paymentRepository
	students  paymentStudentRepository
	gateway   PaymentGateway
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs a PaymentService instance.
func NewPaymentService(payments paymentRepository, students paymentStudentRepository, gateway PaymentGateway, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{payments: payments, students: students, gateway: gateway, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Initiate records a payment attempt for an owned student. On success a
// receipt id is assigned and the fee breakdown is reduced within the same
// transaction as the payment insert.
func (s *PaymentService) Initiate(ctx context.Context, parentID string, req models.InitiatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	student, err := s.students.FindOwned(ctx, req.StudentID, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	status := req.Simulate
	if status == "" {
		status = s.gateway.Charge(ctx, student.ID, req.Category, req.Amount)
	}

	payment := &models.Payment{
		ParentID:  parentID,
		StudentID: student.ID,
		Amount:    req.Amount,
		Category:  req.Category,
		Status:    status,
	}
	if status == models.PaymentSuccess {
		receipt := uuid.NewString()
		payment.ReceiptID = &receipt
	}

	queryStart := time.Now()
	ledgerResult, err := s.payments.CreateWithLedger(ctx, payment)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("payment_create", time.Since(queryStart))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if s.metrics != nil {
		s.metrics.RecordPayment(string(status))
	}

	if status == models.PaymentSuccess {
		if ledgerResult != models.LedgerApplied {
			s.logger.Warn("payment recorded without ledger update",
				zap.String("payment_id", payment.ID),
				zap.String("category", req.Category),
				zap.String("ledger_result", ledgerResult.String()),
			)
		}
		if s.cache != nil {
			s.cache.Invalidate(ctx, dashboardCachePattern(parentID))
		}
	}

	s.logger.Info("payment initiated",
		zap.String("payment_id", payment.ID),
		zap.String("student_id", student.ID),
		zap.String("status", string(status)),
	)

	return payment, nil
}

// Receipt returns the receipt view of a successful owned payment. Failed,
// missing and foreign payments all surface as not found.
func (s *PaymentService) Receipt(ctx context.Context, parentID, paymentID string) (*models.Receipt, error) {
	payment, err := s.payments.FindOwned(ctx, paymentID, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentSuccess || payment.ReceiptID == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not available")
	}

	receipt := &models.Receipt{
		ReceiptID: *payment.ReceiptID,
		PaymentID: payment.ID,
		StudentID: payment.StudentID,
		Amount:    payment.Amount,
		Category:  payment.Category,
		PaidAt:    payment.CreatedAt,
	}

	if student, err := s.students.FindOwned(ctx, payment.StudentID, parentID); err == nil {
		receipt.StudentName = student.Name
		receipt.StudentClass = student.ClassLabel
	}

	return receipt, nil
}

// AllReceipts returns every successful payment receipt for the parent,
// newest first.
func (s *PaymentService) AllReceipts(ctx context.Context, parentID string) ([]models.Receipt, error) {
	queryStart := time.Now()
	receipts, err := s.payments.ListSuccessfulByParent(ctx, parentID)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("receipts_list", time.Since(queryStart))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
	}
	return receipts, nil
}

func dashboardCachePattern(parentID string) string {
	return fmt.Sprintf("dashboard:*:%s", parentID)
}
