package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ScholarshipsKey is the distinguished fee-breakdown entry holding a flat
// deduction. It is not a payable category: it never accrues a balance and is
// subtracted once from the aggregate when computing total dues.
const ScholarshipsKey = "scholarships"

// FeeBreakdown maps a fee category to its current outstanding amount.
// Stored as a JSONB column on the students table.
type FeeBreakdown map[string]float64

// Value implements driver.Valuer for JSONB storage.
func (b FeeBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (b *FeeBreakdown) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = FeeBreakdown{}
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported fee_breakdown type %T", src)
	}
}

// Dues computes the read-only dues view of the breakdown. Every category is
// floored at zero; the scholarships entry is excluded from the per-category
// map and subtracted once from the total, which is itself floored at zero.
func (b FeeBreakdown) Dues() DuesSummary {
	dues := make(map[string]float64, len(b))
	var sum float64
	for category, outstanding := range b {
		if category == ScholarshipsKey {
			continue
		}
		due := outstanding
		if due < 0 {
			due = 0
		}
		dues[category] = due
		sum += due
	}

	scholarship := b[ScholarshipsKey]
	total := sum - scholarship
	if total < 0 {
		total = 0
	}

	return DuesSummary{DuesByCategory: dues, Scholarship: scholarship, TotalDue: total}
}

// Student belongs to exactly one parent and carries the fee ledger state.
type Student struct {
	ID           string       `db:"id" json:"id"`
	ParentID     string       `db:"parent_id" json:"parent_id"`
	Name         string       `db:"name" json:"name"`
	ClassLabel   string       `db:"class_label" json:"class_label"`
	FeeBreakdown FeeBreakdown `db:"fee_breakdown" json:"fee_breakdown"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// DuesSummary is the computed dues view returned by dashboard endpoints.
type DuesSummary struct {
	DuesByCategory map[string]float64 `json:"dues_by_category"`
	Scholarship    float64            `json:"scholarships"`
	TotalDue       float64            `json:"total_due"`
}

// UpcomingDuesResponse wraps the dues summary with the student it belongs to.
type UpcomingDuesResponse struct {
	StudentID string `json:"student_id"`
	DuesSummary
}

// FeeBreakdownResponse is the raw breakdown view of a student.
type FeeBreakdownResponse struct {
	StudentID    string       `json:"student_id"`
	Name         string       `json:"name"`
	ClassLabel   string       `json:"class_label"`
	FeeBreakdown FeeBreakdown `json:"fee_breakdown"`
}
