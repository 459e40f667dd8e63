package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/response"
)

type adviceService interface {
	SummarizeText(ctx context.Context, text string) *models.SummaryResponse
	SummarizeUpload(ctx context.Context, filename, mimeType string, r io.Reader) (*models.SummaryResponse, error)
	Advice(ctx context.Context, parentID string) (*models.AdviceResponse, error)
}

// AIHandler serves document summarization and planning advice endpoints.
type AIHandler struct {
	service adviceService
}

// NewAIHandler constructs an AI handler.
func NewAIHandler(service adviceService) *AIHandler {
	return &AIHandler{service: service}
}

// Summarize godoc
// @Summary Summarize a fee document
// @Description Summarize an uploaded document or raw text. Send multipart form data with a "file" part, or JSON with a "text" field.
// @Tags AI
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /ai/summarize [post]
func (h *AIHandler) Summarize(c *gin.Context) {
	if currentClaims(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.summarizeUpload(c)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "provide a file upload or a text field"))
		return
	}

	response.JSON(c, http.StatusOK, h.service.SummarizeText(c.Request.Context(), req.Text), nil)
}

func (h *AIHandler) summarizeUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if text := strings.TrimSpace(c.PostForm("text")); text != "" {
			response.JSON(c, http.StatusOK, h.service.SummarizeText(c.Request.Context(), text), nil)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "provide a file upload or a text field"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "could not read uploaded file"))
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	res, err := h.service.SummarizeUpload(c.Request.Context(), fileHeader.Filename, mimeType, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Advice godoc
// @Summary Fee planning advice
// @Description Personalized planning advice from the student's fee breakdown and payment history
// @Tags AI
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ai/advice [get]
func (h *AIHandler) Advice(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.Advice(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
