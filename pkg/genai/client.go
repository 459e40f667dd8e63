package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultUploadURL = "https://generativelanguage.googleapis.com/upload/v1beta/files"
	defaultModel     = "gemini-2.5-flash"
	maxRetries       = 3
	initialDelay     = 1 * time.Second
)

// Client calls the Gemini generateContent and media APIs.
type Client struct {
	apiKey    string
	model     string
	baseURL   string
	uploadURL string
	client    *http.Client
}

// FileRef identifies a file uploaded to the remote service.
type FileRef struct {
	Name     string
	URI      string
	MIMEType string
}

type generatePart struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI  string `json:"file_uri"`
	MIMEType string `json:"mime_type,omitempty"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type uploadResponse struct {
	File struct {
		Name     string `json:"name"`
		URI      string `json:"uri"`
		MIMEType string `json:"mimeType"`
	} `json:"file"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a Gemini client. An empty apiKey yields an unconfigured
// client; callers must check Configured before use.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		baseURL:   defaultBaseURL,
		uploadURL: defaultUploadURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// GenerateText sends a text-only prompt and returns the model output.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []generatePart{{Text: prompt}})
}

// GenerateWithFile sends a prompt referencing a previously uploaded file.
func (c *Client) GenerateWithFile(ctx context.Context, prompt string, file *FileRef) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file reference required")
	}
	parts := []generatePart{
		{Text: prompt},
		{FileData: &fileData{FileURI: file.URI, MIMEType: file.MIMEType}},
	}
	return c.generate(ctx, parts)
}

// UploadFile uploads a local file to the media endpoint.
func (c *Client) UploadFile(ctx context.Context, path, mimeType string) (*FileRef, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.uploadURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload failed: %s", extractAPIError(resp.StatusCode, body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &FileRef{Name: parsed.File.Name, URI: parsed.File.URI, MIMEType: parsed.File.MIMEType}, nil
}

// DeleteFile removes an uploaded file from the remote service.
func (c *Client) DeleteFile(ctx context.Context, file *FileRef) error {
	if !c.Configured() || file == nil || file.Name == "" {
		return nil
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, file.Name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed: %s", extractAPIError(resp.StatusCode, body))
	}
	return nil
}

func (c *Client) generate(ctx context.Context, parts []generatePart) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gemini api key not configured")
	}

	payload, err := json.Marshal(generateRequest{Contents: []generateContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("generate failed: %s", extractAPIError(resp.StatusCode, body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("generate failed: %s", extractAPIError(resp.StatusCode, body))
		}

		var parsed generateResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("empty response from model")
		}

		var out bytes.Buffer
		for _, part := range parsed.Candidates[0].Content.Parts {
			out.WriteString(part.Text)
		}
		return out.String(), nil
	}

	return "", fmt.Errorf("all %d attempts failed, last error: %w", maxRetries, lastErr)
}

func extractAPIError(status int, body []byte) string {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", status, parsed.Error.Message)
	}
	return fmt.Sprintf("status %d", status)
}
