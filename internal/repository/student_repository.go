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

// StudentRepository provides database access for students and their fee
// breakdowns.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, parent_id, name, class_label, fee_breakdown, created_at, updated_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &student, nil
}

// FindOwned returns a student only when it belongs to the given parent.
// Missing and not-owned are indistinguishable to the caller.
func (r *StudentRepository) FindOwned(ctx context.Context, id, parentID string) (*models.Student, error) {
	const query = `SELECT id, parent_id, name, class_label, fee_breakdown, created_at, updated_at FROM students WHERE id = $1 AND parent_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, parentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find owned student: %w", err)
	}
	return &student, nil
}

// FindFirstByParent returns the parent's first registered student.
func (r *StudentRepository) FindFirstByParent(ctx context.Context, parentID string) (*models.Student, error) {
	const query = `SELECT id, parent_id, name, class_label, fee_breakdown, created_at, updated_at FROM students WHERE parent_id = $1 ORDER BY created_at ASC LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, parentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by parent: %w", err)
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, parent_id, name, class_label, fee_breakdown, created_at, updated_at) VALUES (:id, :parent_id, :name, :class_label, :fee_breakdown, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// ApplyPayment reduces the outstanding amount of one fee category, floored
// at zero. The decrement is a single UPDATE so concurrent payments against
// the same student serialize on the row instead of racing a read-modify-write.
func (r *StudentRepository) ApplyPayment(ctx context.Context, studentID, category string, amount float64) (models.LedgerApplyResult, error) {
	return applyLedger(ctx, r.db, studentID, category, amount)
}

const applyLedgerQuery = `UPDATE students SET fee_breakdown = jsonb_set(fee_breakdown, ARRAY[$2], to_jsonb(GREATEST((fee_breakdown->>$2)::numeric - $3, 0))), updated_at = $4 WHERE id = $1 AND fee_breakdown ? $2`

// applyLedger runs the ledger decrement on any executor so the payment flow
// can reuse it inside a transaction. A zero row count is disambiguated into
// student-missing or category-missing.
func applyLedger(ctx context.Context, ext sqlx.ExtContext, studentID, category string, amount float64) (models.LedgerApplyResult, error) {
	res, err := ext.ExecContext(ctx, applyLedgerQuery, studentID, category, amount, time.Now().UTC())
	if err != nil {
		return models.LedgerStudentMissing, fmt.Errorf("apply ledger payment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return models.LedgerStudentMissing, fmt.Errorf("apply ledger payment rows: %w", err)
	}
	if rows > 0 {
		return models.LedgerApplied, nil
	}

	var exists bool
	if err := sqlx.GetContext(ctx, ext, &exists, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, studentID); err != nil {
		return models.LedgerStudentMissing, fmt.Errorf("check student existence: %w", err)
	}
	if exists {
		return models.LedgerCategoryMissing, nil
	}
	return models.LedgerStudentMissing, nil
}
