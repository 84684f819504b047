package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client implements TextGenerator against an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	stats      *Stats
}

// NewClient creates a client for the given API base URL (the path
// /chat/completions is appended per call).
func NewClient(baseURL, apiKey string, stats *Stats) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		stats: stats,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a single-turn prompt and returns the response text.
// Every call is observed, so the stats window reflects failures and
// non-200 responses as well as clean completions.
func (c *Client) Complete(ctx context.Context, prompt, modelRef string, cons Constraints) (out string, err error) {
	if c.stats != nil {
		start := time.Now()
		defer func() {
			c.stats.Observe(time.Since(start), err)
		}()
	}

	reqBody := chatRequest{
		Model:       modelRef,
		Temperature: cons.Temperature,
		MaxTokens:   cons.MaxTokens,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Reason: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Reason: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &Error{Reason: "backend request", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Reason: "read response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &Error{
			Reason:    fmt.Sprintf("backend status %d", resp.StatusCode),
			Retryable: true,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Reason: fmt.Sprintf("backend status %d: %s", resp.StatusCode, truncate(string(respBody), 200))}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &Error{Reason: "decode response", Err: err}
	}
	if apiResp.Error != nil {
		return "", &Error{Reason: fmt.Sprintf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)}
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", &Error{Reason: "empty completion"}
	}

	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
