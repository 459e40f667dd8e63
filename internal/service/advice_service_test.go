package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/genai"
	"github.com/noah-isme/sfp-api/pkg/storage"
)

type fakeGenerator struct {
	configured  bool
	response    string
	err         error
	prompts     []string
	uploaded    int
	deleted     int
	uploadErr   error
	generateErr error
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) GenerateWithFile(_ context.Context, prompt string, _ *genai.FileRef) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.response, nil
}

func (f *fakeGenerator) UploadFile(_ context.Context, path, mimeType string) (*genai.FileRef, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded++
	return &genai.FileRef{Name: "files/abc", URI: "https://example.invalid/files/abc", MIMEType: mimeType}, nil
}

func (f *fakeGenerator) DeleteFile(_ context.Context, _ *genai.FileRef) error {
	f.deleted++
	return nil
}

func newAdviceService(t *testing.T, gen *fakeGenerator, students dashboardStudentRepository, payments advicePaymentRepository) *AdviceService {
	t.Helper()
	store, err := storage.NewTempStore(t.TempDir())
	require.NoError(t, err)
	return NewAdviceService(gen, students, payments, store, 1024*1024, zap.NewNop())
}

func TestAdviceServiceSummarizeTextFallbackWhenUnconfigured(t *testing.T) {
	svc := newAdviceService(t, &fakeGenerator{configured: false}, newMockStudentRepo(), newMockPaymentRepo())

	res := svc.SummarizeText(context.Background(), "fee notice text")
	assert.Equal(t, FallbackMessage, res.Summary)
}

func TestAdviceServiceDegradeLogsTypedUnavailable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store, err := storage.NewTempStore(t.TempDir())
	require.NoError(t, err)
	svc := NewAdviceService(&fakeGenerator{configured: false}, newMockStudentRepo(), newMockPaymentRepo(), store, 1024, zap.New(core))

	res := svc.SummarizeText(context.Background(), "fee notice text")
	assert.Equal(t, FallbackMessage, res.Summary)

	entries := logs.FilterMessage("text generation failed").All()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Context, 1)
	loggedErr, ok := entries[0].Context[0].Interface.(error)
	require.True(t, ok)
	assert.ErrorIs(t, loggedErr, appErrors.ErrAIUnavailable)
}

func TestAdviceServiceSummarizeTextFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: errors.New("quota exceeded")}
	svc := newAdviceService(t, gen, newMockStudentRepo(), newMockPaymentRepo())

	res := svc.SummarizeText(context.Background(), "fee notice text")
	assert.Equal(t, FallbackMessage, res.Summary)
}

func TestAdviceServiceSummarizeTextIncludesDocument(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: "Summary of charges."}
	svc := newAdviceService(t, gen, newMockStudentRepo(), newMockPaymentRepo())

	res := svc.SummarizeText(context.Background(), "tuition due 55000 by June 1")
	assert.Equal(t, "Summary of charges.", res.Summary)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "tuition due 55000 by June 1")
}

func TestAdviceServiceSummarizeUploadCleansUpRemoteFile(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: "Document summary."}
	svc := newAdviceService(t, gen, newMockStudentRepo(), newMockPaymentRepo())

	res, err := svc.SummarizeUpload(context.Background(), "notice.pdf", "application/pdf", strings.NewReader("%PDF-1.4 fee notice"))
	require.NoError(t, err)
	assert.Equal(t, "Document summary.", res.Summary)
	assert.Equal(t, 1, gen.uploaded)
	assert.Equal(t, 1, gen.deleted)
}

func TestAdviceServiceSummarizeUploadFallbackOnUploadError(t *testing.T) {
	gen := &fakeGenerator{configured: true, uploadErr: errors.New("upload refused")}
	svc := newAdviceService(t, gen, newMockStudentRepo(), newMockPaymentRepo())

	res, err := svc.SummarizeUpload(context.Background(), "notice.pdf", "application/pdf", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, FallbackMessage, res.Summary)
}

func TestAdviceServiceAdviceIncludesStudentContext(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: "Pay tuition first."}
	svc := newAdviceService(t, gen, newMockStudentRepo(seedStudent()), newMockPaymentRepo())

	res, err := svc.Advice(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "st1", res.StudentID)
	assert.Equal(t, "Pay tuition first.", res.Advice)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Alex Doe")
	assert.Contains(t, gen.prompts[0], "tuition")
}

func TestAdviceServiceAdviceNoStudent(t *testing.T) {
	svc := newAdviceService(t, &fakeGenerator{configured: true}, newMockStudentRepo(), newMockPaymentRepo())

	_, err := svc.Advice(context.Background(), "p1")
	require.Error(t, err)
}

func TestAdviceServiceSummarizeReceiptsEmpty(t *testing.T) {
	svc := newAdviceService(t, &fakeGenerator{configured: true}, newMockStudentRepo(), newMockPaymentRepo())

	res, err := svc.SummarizeReceipts(context.Background(), "p1", "how much did I pay?")
	require.NoError(t, err)
	assert.Equal(t, "No payment receipts found to summarize.", res.Raw)
	assert.Nil(t, res.Structured)
	assert.Equal(t, 0, res.ReceiptsCount)
}

func TestAdviceServiceSummarizeReceiptsStructured(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: "```json\n{\"summary\": \"You paid 52000 in total.\", \"highlights\": [\"tuition 25000\"]}\n```"}
	payments := newMockPaymentRepo()
	payments.receipts = []models.Receipt{{ReceiptID: "rcpt-1", Amount: 25000, Category: "tuition"}}
	svc := newAdviceService(t, gen, newMockStudentRepo(), payments)

	res, err := svc.SummarizeReceipts(context.Background(), "p1", "total paid?")
	require.NoError(t, err)
	require.NotNil(t, res.Structured)
	assert.Equal(t, "You paid 52000 in total.", res.Structured.Summary)
	assert.Equal(t, []string{"tuition 25000"}, res.Structured.Highlights)
	assert.Equal(t, 1, res.ReceiptsCount)
}

func TestAdviceServiceSummarizeReceiptsRawFallback(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: "You paid a total of 52000 across two receipts."}
	payments := newMockPaymentRepo()
	payments.receipts = []models.Receipt{{ReceiptID: "rcpt-1"}, {ReceiptID: "rcpt-2"}}
	svc := newAdviceService(t, gen, newMockStudentRepo(), payments)

	res, err := svc.SummarizeReceipts(context.Background(), "p1", "total paid?")
	require.NoError(t, err)
	assert.Nil(t, res.Structured)
	assert.Equal(t, gen.response, res.Raw)
	assert.Equal(t, 2, res.ReceiptsCount)
}

func TestParseInsightsRejectsNonJSON(t *testing.T) {
	assert.Nil(t, parseInsights("plain text answer"))
	assert.Nil(t, parseInsights("{\"highlights\": [\"no summary field\"]}"))
}
