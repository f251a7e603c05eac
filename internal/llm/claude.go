// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is a small client for the Claude Messages API, used for
// query generation, semantic ranking, content matching and relevance text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/refresolve/internal/httputil"
	"github.com/pdiddy/refresolve/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
)

// ErrNoAPIKey is returned when the client has no API key configured.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

// Meter accumulates the cost of billable calls.
type Meter interface {
	Add(units float64)
}

// Client calls the Claude Messages API.
type Client struct {
	APIKey    string
	Model     string
	MaxTokens int
	HTTP      *http.Client

	// Meter, when set, is charged Cost per request.
	Meter Meter
	Cost  float64
}

// New returns a client for cfg with defaults for unset fields.
func New(cfg types.AIConfig) *Client {
	c := &Client{APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends prompt as a single user message and returns the text of
// the first text block in the reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrNoAPIKey
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	if c.Meter != nil {
		c.Meter.Add(c.Cost)
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}
	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}

// CompleteJSON calls Complete and decodes the first JSON object in the
// reply into v. Models sometimes wrap JSON in prose or code fences.
func (c *Client) CompleteJSON(ctx context.Context, prompt string, v any) error {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	obj, ok := firstJSONObject(text)
	if !ok {
		return fmt.Errorf("no JSON object in reply: %q", truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("parsing AI response JSON: %w", err)
	}
	return nil
}

// firstJSONObject returns the outermost {...} span of s, tracking string
// literals so braces inside them do not count.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth, inString, escaped := 0, false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
