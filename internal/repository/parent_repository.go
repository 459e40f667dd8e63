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

// ParentRepository provides database access for parent accounts.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository creates a new instance of ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// FindByEmail returns a parent by email address.
func (r *ParentRepository) FindByEmail(ctx context.Context, email string) (*models.Parent, error) {
	const query = `SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM parents WHERE email = $1 LIMIT 1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent by email: %w", err)
	}
	return &parent, nil
}

// FindByID returns a parent by identifier.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	const query = `SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM parents WHERE id = $1 LIMIT 1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find parent by id: %w", err)
	}
	return &parent, nil
}

// Create inserts a new parent account.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = now
	}
	parent.UpdatedAt = now

	const query = `INSERT INTO parents (id, email, password_hash, full_name, role, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}
