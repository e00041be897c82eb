package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podrecon/internal/config"
	"podrecon/internal/parser"
	"podrecon/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

func init() {
	parser.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.ExtractionBackend, error) {
		return NewBackend(cfg), nil
	})
}

// Backend implements port.ExtractionBackend using Google's Gemini API.
// The model is part of the request URL, so baseURL excludes it.
type Backend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewBackend creates a Gemini backend.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	base := cfg.Endpoint
	if base == "" {
		base = apiBaseURL
	}
	return newBackend(cfg, base)
}

// NewBackendWithEndpoint creates a backend pointing at a custom API base URL (for testing).
func NewBackendWithEndpoint(cfg *config.ProviderConfig, baseURL string) *Backend {
	return newBackend(cfg, baseURL)
}

func newBackend(cfg *config.ProviderConfig, baseURL string) *Backend {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Backend{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *Backend) Complete(ctx context.Context, in port.ExtractionRequest) (*port.ExtractionResponse, error) {
	model := in.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var parts []map[string]interface{}
	if len(in.Image) > 0 {
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": in.MediaType,
				"data":      base64.StdEncoding.EncodeToString(in.Image),
			},
		}, map[string]interface{}{"text": in.Instruction})
	} else {
		parts = append(parts, map[string]interface{}{"text": parser.ComposeText(in)})
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": maxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", b.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if err := parser.CheckResponse("gemini", resp, respBody); err != nil {
		return nil, err
	}

	return parseResponse(respBody, model)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.ExtractionResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrMalformedResponse, err)
	}

	out := &port.ExtractionResponse{Model: model}
	if len(resp.Candidates) == 0 {
		return out, nil
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	out.Text = text.String()
	out.StopReason = resp.Candidates[0].FinishReason
	return out, nil
}
