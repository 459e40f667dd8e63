package models

// SummaryResponse is the opaque output of a document summarization.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// AdviceResponse carries free-text planning advice for a parent.
type AdviceResponse struct {
	StudentID string `json:"student_id"`
	Advice    string `json:"advice"`
}

// ReceiptInsights is the optional structured form of a receipt summary. The
// model is asked for it but not trusted to produce it; Raw always holds the
// full text.
type ReceiptInsights struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights,omitempty"`
}

// ReceiptSummaryResponse is a two-variant result: Structured when the model
// output parsed, otherwise only Raw.
type ReceiptSummaryResponse struct {
	Structured    *ReceiptInsights `json:"structured,omitempty"`
	Raw           string           `json:"summary"`
	ReceiptsCount int              `json:"receipts_count"`
}
