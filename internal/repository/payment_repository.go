package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sfp-api/internal/models"
)

// PaymentRepository provides database access for payment events. Payment
// rows are immutable after insert.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const insertPaymentQuery = `INSERT INTO payments (id, parent_id, student_id, amount, category, status, receipt_id, created_at) VALUES (:id, :parent_id, :student_id, :amount, :category, :status, :receipt_id, :created_at)`

// CreateWithLedger inserts the payment record and, for a successful payment,
// applies the fee-breakdown decrement in the same transaction. The two
// writes either both commit or both roll back.
func (r *PaymentRepository) CreateWithLedger(ctx context.Context, payment *models.Payment) (models.LedgerApplyResult, error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.LedgerApplied, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.NamedExecContext(ctx, insertPaymentQuery, payment); err != nil {
		return models.LedgerApplied, fmt.Errorf("create payment: %w", err)
	}

	result := models.LedgerApplied
	if payment.Status == models.PaymentSuccess {
		result, err = applyLedger(ctx, tx, payment.StudentID, payment.Category, payment.Amount)
		if err != nil {
			return result, err
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit payment tx: %w", err)
	}
	return result, nil
}

// FindOwned returns a payment only when it belongs to the given parent.
func (r *PaymentRepository) FindOwned(ctx context.Context, id, parentID string) (*models.Payment, error) {
	const query = `SELECT id, parent_id, student_id, amount, category, status, receipt_id, created_at FROM payments WHERE id = $1 AND parent_id = $2 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id, parentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find owned payment: %w", err)
	}
	return &payment, nil
}

// ListByParent returns the parent's payment history, newest first.
func (r *PaymentRepository) ListByParent(ctx context.Context, parentID string) ([]models.Payment, error) {
	const query = `SELECT id, parent_id, student_id, amount, category, status, receipt_id, created_at FROM payments WHERE parent_id = $1 ORDER BY created_at DESC`
	payments := make([]models.Payment, 0)
	if err := r.db.SelectContext(ctx, &payments, query, parentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListSuccessfulByParent returns the parent's successful payments, newest
// first, joined with the student's name and class for receipt views.
func (r *PaymentRepository) ListSuccessfulByParent(ctx context.Context, parentID string) ([]models.Receipt, error) {
	const query = `SELECT p.receipt_id AS receipt_id, p.id AS payment_id, p.student_id, COALESCE(s.name, '') AS student_name, COALESCE(s.class_label, '') AS student_class, p.amount, p.category, p.created_at AS paid_at FROM payments p LEFT JOIN students s ON s.id = p.student_id WHERE p.parent_id = $1 AND p.status = $2 ORDER BY p.created_at DESC`

	rows := make([]struct {
		ReceiptID    string    `db:"receipt_id"`
		PaymentID    string    `db:"payment_id"`
		StudentID    string    `db:"student_id"`
		StudentName  string    `db:"student_name"`
		StudentClass string    `db:"student_class"`
		Amount       float64   `db:"amount"`
		Category     string    `db:"category"`
		PaidAt       time.Time `db:"paid_at"`
	}, 0)
	if err := r.db.SelectContext(ctx, &rows, query, parentID, models.PaymentSuccess); err != nil {
		return nil, fmt.Errorf("list successful payments: %w", err)
	}

	receipts := make([]models.Receipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, models.Receipt{
			ReceiptID:    row.ReceiptID,
			PaymentID:    row.PaymentID,
			StudentID:    row.StudentID,
			StudentName:  row.StudentName,
			StudentClass: row.StudentClass,
			Amount:       row.Amount,
			Category:     row.Category,
			PaidAt:       row.PaidAt,
		})
	}
	return receipts, nil
}
