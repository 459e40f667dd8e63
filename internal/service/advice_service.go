package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/genai"
	"github.com/noah-isme/sfp-api/pkg/storage"
)

// FallbackMessage is returned whenever the text-generation service is
// unconfigured or unreachable. AI routes degrade to it instead of failing.
const FallbackMessage = "AI assistance is currently unavailable. Summaries and advice will return once the AI service is configured."

const noReceiptsMessage = "No payment receipts found to summarize."

// TextGenerator is the surface of the external text-generation client the
// advice gateway needs.
type TextGenerator interface {
	Configured() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithFile(ctx context.Context, prompt string, file *genai.FileRef) (string, error)
	UploadFile(ctx context.Context, path, mimeType string) (*genai.FileRef, error)
	DeleteFile(ctx context.Context, file *genai.FileRef) error
}

type advicePaymentRepository interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Payment, error)
	ListSuccessfulByParent(ctx context.Context, parentID string) ([]models.Receipt, error)
}

// AdviceService forwards ledger and payment snapshots plus user prompts to
// the external text-generation service. It holds no state of its own.
type AdviceService struct {
	generator TextGenerator
	students  dashboardStudentRepository
	payments  advicePaymentRepository
	tempFiles *storage.TempStore
	maxUpload int64
	logger    *zap.Logger
}

// NewAdviceService constructs an AdviceService instance.
func NewAdviceService(generator TextGenerator, students dashboardStudentRepository, payments advicePaymentRepository, tempFiles *storage.TempStore, maxUpload int64, logger *zap.Logger) *AdviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	return &AdviceService{generator: generator, students: students, payments: payments, tempFiles: tempFiles, maxUpload: maxUpload, logger: logger}
}

// SummarizeText summarizes a financial document supplied as raw text.
func (s *AdviceService) SummarizeText(ctx context.Context, text string) *models.SummaryResponse {
	prompt := fmt.Sprintf(`You are a helpful assistant for parents. Summarize the following financial document focusing on:
- Tuition, hostel, transport charges
- Scholarships or waivers
- Important due dates and action items

Document:
%s`, text)

	return &models.SummaryResponse{Summary: s.generate(ctx, prompt)}
}

// SummarizeUpload summarizes an uploaded document. The file is staged in a
// scoped temporary file, uploaded to the remote service, referenced in the
// generation request, and removed from both places on every exit path.
func (s *AdviceService) SummarizeUpload(ctx context.Context, filename, mimeType string, r io.Reader) (*models.SummaryResponse, error) {
	path, err := s.tempFiles.Save("summarize-*"+safeExt(filename), r, s.maxUpload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not stage uploaded file")
	}
	defer func() {
		if err := s.tempFiles.Remove(path); err != nil {
			s.logger.Warn("failed to remove temp upload", zap.String("path", path), zap.Error(err))
		}
	}()

	if !s.generator.Configured() {
		s.logger.Warn("file summarization skipped", zap.Error(appErrors.ErrAIUnavailable))
		return &models.SummaryResponse{Summary: FallbackMessage}, nil
	}

	file, err := s.generator.UploadFile(ctx, path, mimeType)
	if err != nil {
		s.logger.Warn("file upload to model failed", zap.Error(err))
		return &models.SummaryResponse{Summary: FallbackMessage}, nil
	}
	defer func() {
		if err := s.generator.DeleteFile(ctx, file); err != nil {
			s.logger.Warn("failed to delete remote file", zap.String("file", file.Name), zap.Error(err))
		}
	}()

	prompt := `You are a helpful assistant for parents. Analyze this financial document and provide a clear summary focusing on:
- Tuition, hostel, transport charges
- Scholarships or waivers
- Important due dates and action items
- Total amounts due

Please be specific with numbers and dates.`

	out, err := s.generator.GenerateWithFile(ctx, prompt, file)
	if err != nil {
		s.logger.Warn("file summarization failed", zap.Error(err))
		return &models.SummaryResponse{Summary: FallbackMessage}, nil
	}
	return &models.SummaryResponse{Summary: out}, nil
}

// Advice produces planning advice from the student's fee breakdown and the
// parent's payment history.
func (s *AdviceService) Advice(ctx context.Context, parentID string) (*models.AdviceResponse, error) {
	student, err := s.students.FindFirstByParent(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	history, err := s.payments.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}

	breakdownJSON, _ := json.Marshal(student.FeeBreakdown)
	historyJSON, _ := json.Marshal(history)

	prompt := fmt.Sprintf(`Given a student's fee breakdown and past payment history, provide concise, personalized planning advice for a parent.
Be practical and mention opportunities to optimize, including the impact of scholarships.

Student: %s
Fee Breakdown: %s
Payment History (latest first): %s`, student.Name, breakdownJSON, historyJSON)

	return &models.AdviceResponse{StudentID: student.ID, Advice: s.generate(ctx, prompt)}, nil
}

// SummarizeReceipts analyses the parent's receipts against a user prompt.
// Structured extraction is best effort: when the model output does not
// parse, only the raw text is returned.
func (s *AdviceService) SummarizeReceipts(ctx context.Context, parentID, userPrompt string) (*models.ReceiptSummaryResponse, error) {
	receipts, err := s.payments.ListSuccessfulByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
	}
	if len(receipts) == 0 {
		return &models.ReceiptSummaryResponse{Raw: noReceiptsMessage}, nil
	}

	receiptsJSON, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode receipts")
	}

	prompt := fmt.Sprintf(`You are a financial assistant AI specialized in analyzing payment receipts and providing insights based on user queries.

Each receipt carries: receipt_id, payment_id, student_name, student_class, amount, category and paid_at.

Analyze the receipts and answer the user's query. Perform requested calculations accurately and call out trends clearly.
If possible, respond as JSON of the form {"summary": "...", "highlights": ["..."]}; otherwise respond in plain text.

Payment Receipts Data:
%s

User Query: %s`, receiptsJSON, userPrompt)

	raw := s.generate(ctx, prompt)
	resp := &models.ReceiptSummaryResponse{Raw: raw, ReceiptsCount: len(receipts)}
	if insights := parseInsights(raw); insights != nil {
		resp.Structured = insights
	}
	return resp, nil
}

func (s *AdviceService) generate(ctx context.Context, prompt string) string {
	out, err := s.tryGenerate(ctx, prompt)
	if err != nil {
		s.logger.Warn("text generation failed", zap.Error(err))
		return FallbackMessage
	}
	return out
}

// tryGenerate normalizes the unconfigured case into the typed unavailable
// error so every degrade path logs the same cause.
func (s *AdviceService) tryGenerate(ctx context.Context, prompt string) (string, error) {
	if !s.generator.Configured() {
		return "", appErrors.ErrAIUnavailable
	}
	out, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAIUnavailable.Code, appErrors.ErrAIUnavailable.Status, "text generation failed")
	}
	return out, nil
}

// parseInsights attempts to read the model output as structured insights.
func parseInsights(raw string) *models.ReceiptInsights {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var insights models.ReceiptInsights
	if err := json.Unmarshal([]byte(trimmed), &insights); err != nil {
		return nil
	}
	if insights.Summary == "" {
		return nil
	}
	return &insights
}

func safeExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	ext := filename[idx:]
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
