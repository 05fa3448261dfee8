// Package geminiclient is an HTTP client for the Gemini generateContent
// REST API. It exposes only what the risk engine needs: send a prompt
// with a system instruction, get back the response text and the finish
// reason. Interpretation of finish reasons belongs to the caller.
package geminiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultModel is the generation model used when none is configured.
	DefaultModel = "gemini-3-flash-preview"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 30 * time.Second

	maxErrorBodyBytes = 4 << 10
)

// ErrNoCandidates indicates the API answered but returned no candidates
// at all, which happens when the prompt itself is blocked.
var ErrNoCandidates = errors.New("gemini response contains no candidates")

// Config holds client construction parameters. Only APIKey is required.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Gemini REST API. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// GenerateResult is the outcome of one generation call.
type GenerateResult struct {
	Text         string
	FinishReason string
}

// Blocked reports whether generation was refused for safety reasons.
// The API surfaces this as a finish reason containing "SAFETY".
func (r *GenerateResult) Blocked() bool {
	return strings.Contains(strings.ToUpper(r.FinishReason), "SAFETY")
}

// Normal reports whether generation ran to a normal stop.
func (r *GenerateResult) Normal() bool {
	return r.FinishReason == "" || strings.Contains(strings.ToUpper(r.FinishReason), "STOP")
}

// New creates a Gemini client from cfg, filling in defaults for the
// model, base URL and timeout.
func New(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the configured generation model name.
func (c *Client) Model() string {
	return c.model
}

// Wire types for the generateContent endpoint.

type generateRequest struct {
	SystemInstruction *content        `json:"system_instruction,omitempty"`
	Contents          []content       `json:"contents"`
	SafetySettings    []safetySetting `json:"safetySettings,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      *content `json:"content"`
	FinishReason string   `json:"finishReason"`
}

// defaultSafetySettings relaxes blocking for the harm categories that
// bank complaints routinely trip: comments about fraud, theft and
// threats must reach the model to be classified.
var defaultSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
}

// GenerateContent sends prompt with systemInstruction to the configured
// model and returns the first candidate's text and finish reason. A
// response without candidates yields ErrNoCandidates. The caller is
// responsible for interpreting non-normal finish reasons; text may be
// empty when generation was blocked or truncated before output.
func (c *Client) GenerateContent(ctx context.Context, systemInstruction, prompt string) (*GenerateResult, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		SafetySettings: defaultSafetySettings,
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("gemini api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded generateResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	if len(decoded.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	first := decoded.Candidates[0]
	result := &GenerateResult{FinishReason: first.FinishReason}
	if first.Content != nil {
		var sb strings.Builder
		for _, p := range first.Content.Parts {
			sb.WriteString(p.Text)
		}
		result.Text = strings.TrimSpace(sb.String())
	}

	return result, nil
}
