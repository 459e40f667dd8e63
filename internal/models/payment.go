package models

import "time"

// PaymentStatus is decided once at creation time and never transitions.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is an immutable record of a payment attempt. ReceiptID is set
// exactly when Status is success.
type Payment struct {
	ID        string        `db:"id" json:"id"`
	ParentID  string        `db:"parent_id" json:"parent_id"`
	StudentID string        `db:"student_id" json:"student_id"`
	Amount    float64       `db:"amount" json:"amount"`
	Category  string        `db:"category" json:"category"`
	Status    PaymentStatus `db:"status" json:"status"`
	ReceiptID *string       `db:"receipt_id" json:"receipt_id,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// InitiatePaymentRequest starts a simulated payment.
type InitiatePaymentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Category  string  `json:"category" validate:"required"`
	// Simulate forces the gateway outcome; used by demos and tests.
	Simulate PaymentStatus `json:"simulate,omitempty" validate:"omitempty,oneof=success failed"`
}

// LedgerApplyResult reports what happened to the fee breakdown when a
// payment was applied. The legacy behaviour was a silent no-op on missing
// students or categories; callers now see which case occurred.
type LedgerApplyResult int

const (
	LedgerApplied LedgerApplyResult = iota
	LedgerStudentMissing
	LedgerCategoryMissing
)

// String returns a log-friendly label.
func (r LedgerApplyResult) String() string {
	switch r {
	case LedgerApplied:
		return "applied"
	case LedgerStudentMissing:
		return "student_missing"
	case LedgerCategoryMissing:
		return "category_missing"
	default:
		return "unknown"
	}
}

// Receipt is the proof-of-payment view for a successful payment.
type Receipt struct {
	ReceiptID    string    `json:"receipt_id"`
	PaymentID    string    `json:"payment_id"`
	StudentID    string    `json:"student_id"`
	StudentName  string    `json:"student_name,omitempty"`
	StudentClass string    `json:"student_class,omitempty"`
	Amount       float64   `json:"amount"`
	Category     string    `json:"category"`
	PaidAt       time.Time `json:"paid_at"`
}

// SummarizeReceiptsRequest asks the AI gateway to analyse receipts.
type SummarizeReceiptsRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}
