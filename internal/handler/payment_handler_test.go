package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sfp-api/internal/middleware"
	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/export"
)

type fakePaymentSrv struct {
	payment  *models.Payment
	receipt  *models.Receipt
	receipts []models.Receipt
	err      error
	lastReq  models.InitiatePaymentRequest
}

func (f *fakePaymentSrv) Initiate(_ context.Context, _ string, req models.InitiatePaymentRequest) (*models.Payment, error) {
	f.lastReq = req
	return f.payment, f.err
}

func (f *fakePaymentSrv) Receipt(context.Context, string, string) (*models.Receipt, error) {
	return f.receipt, f.err
}

func (f *fakePaymentSrv) AllReceipts(context.Context, string) ([]models.Receipt, error) {
	return f.receipts, f.err
}

type fakeReceiptSummarizer struct {
	res        *models.ReceiptSummaryResponse
	err        error
	lastPrompt string
}

func (f *fakeReceiptSummarizer) SummarizeReceipts(_ context.Context, _ string, prompt string) (*models.ReceiptSummaryResponse, error) {
	f.lastPrompt = prompt
	return f.res, f.err
}

func newPaymentHandler(srv *fakePaymentSrv, summarizer *fakeReceiptSummarizer) *PaymentHandler {
	if summarizer == nil {
		summarizer = &fakeReceiptSummarizer{}
	}
	return NewPaymentHandler(srv, summarizer, export.NewReceiptPDF("Test School"))
}

func authedJSONRequest(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{ParentID: "p1", Role: models.RoleParent})
	return c, rec
}

func TestPaymentHandlerInitiateCreated(t *testing.T) {
	receiptID := "rcpt-1"
	srv := &fakePaymentSrv{payment: &models.Payment{ID: "pay-1", Status: models.PaymentSuccess, ReceiptID: &receiptID}}
	h := newPaymentHandler(srv, nil)

	c, rec := authedJSONRequest(t, http.MethodPost, "/payments/initiate", `{"student_id":"st1","amount":20000,"category":"tuition"}`)
	h.Initiate(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "st1", srv.lastReq.StudentID)
	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "rcpt-1", data["receipt_id"])
}

func TestPaymentHandlerInitiateBadPayload(t *testing.T) {
	h := newPaymentHandler(&fakePaymentSrv{}, nil)

	c, rec := authedJSONRequest(t, http.MethodPost, "/payments/initiate", `{broken`)
	h.Initiate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandlerReceipt(t *testing.T) {
	srv := &fakePaymentSrv{receipt: &models.Receipt{ReceiptID: "rcpt-1", Amount: 20000, Category: "tuition"}}
	h := newPaymentHandler(srv, nil)

	c, rec := authedContext(t, http.MethodGet, "/payments/receipt/pay-1")
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}
	h.Receipt(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "rcpt-1", data["receipt_id"])
}

func TestPaymentHandlerReceiptNotFound(t *testing.T) {
	srv := &fakePaymentSrv{err: appErrors.Clone(appErrors.ErrNotFound, "receipt not available")}
	h := newPaymentHandler(srv, nil)

	c, rec := authedContext(t, http.MethodGet, "/payments/receipt/pay-1")
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}
	h.Receipt(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentHandlerReceiptPDF(t *testing.T) {
	srv := &fakePaymentSrv{receipt: &models.Receipt{
		ReceiptID:   "rcpt-1",
		PaymentID:   "pay-1",
		StudentName: "Alex Doe",
		Amount:      20000,
		Category:    "tuition",
		PaidAt:      time.Now(),
	}}
	h := newPaymentHandler(srv, nil)

	c, rec := authedContext(t, http.MethodGet, "/payments/receipt/pay-1/pdf")
	c.Params = gin.Params{{Key: "id", Value: "pay-1"}}
	h.ReceiptPDF(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipt-rcpt-1.pdf")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestPaymentHandlerAllReceiptsIncludesCount(t *testing.T) {
	srv := &fakePaymentSrv{receipts: []models.Receipt{{ReceiptID: "rcpt-1"}, {ReceiptID: "rcpt-2"}}}
	h := newPaymentHandler(srv, nil)

	c, rec := authedContext(t, http.MethodGet, "/payments/all-receipts")
	h.AllReceipts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, 2.0, envelope.Meta["total_count"])
}

func TestPaymentHandlerSummarizeReceipts(t *testing.T) {
	summarizer := &fakeReceiptSummarizer{res: &models.ReceiptSummaryResponse{Raw: "You paid 52000.", ReceiptsCount: 2}}
	h := newPaymentHandler(&fakePaymentSrv{}, summarizer)

	c, rec := authedJSONRequest(t, http.MethodPost, "/payments/summarize-receipts", `{"prompt":"total paid?"}`)
	h.SummarizeReceipts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "total paid?", summarizer.lastPrompt)
}

func TestPaymentHandlerSummarizeReceiptsRequiresPrompt(t *testing.T) {
	h := newPaymentHandler(&fakePaymentSrv{}, &fakeReceiptSummarizer{})

	c, rec := authedJSONRequest(t, http.MethodPost, "/payments/summarize-receipts", `{"prompt":"  "}`)
	h.SummarizeReceipts(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
