package roast

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

var ErrInvalidResponse = errors.New("invalid completion response")

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	minTimeout = 3 * time.Second
	maxTimeout = 15 * time.Second
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	hc      *http.Client
}

func NewClient(c Config) *Client {
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := c.Timeout
	if timeout < minTimeout {
		timeout = minTimeout
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(c.APIKey),
		model:   model,
		timeout: timeout,
		hc:      &http.Client{},
	}
}

func (c *Client) Scenario(ctx context.Context, req ScenarioRequest) (Scenario, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": "You write short, playful baby-shower party game prompts. Output JSON only, no extra prose.",
			},
			{
				"role": "user",
				"content": fmt.Sprintf(
					"Parents: %s (mom) and %s (dad). Round %d, spiciness %.1f of 1.0. Write one 'who is more likely to...' scenario about parenting a newborn. JSON fields: scenario (one sentence), mom_option (short phrase), dad_option (short phrase).",
					req.MomName, req.DadName, req.Round, req.Intensity,
				),
			},
		},
		"temperature":     0.9,
		"max_tokens":      200,
		"response_format": map[string]any{"type": "json_object"},
	}

	raw, err := c.doJSON(ctx, "/chat/completions", body)
	if err != nil {
		return Scenario{}, err
	}

	content, err := extractAssistantContent(raw)
	if err != nil {
		return Scenario{}, err
	}

	var parsed struct {
		Scenario  string `json:"scenario"`
		MomOption string `json:"mom_option"`
		DadOption string `json:"dad_option"`
	}
	if err := json.Unmarshal([]byte(extractJSONPayload(content)), &parsed); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}

	s := Scenario{
		Text:      strings.TrimSpace(parsed.Scenario),
		MomOption: strings.TrimSpace(parsed.MomOption),
		DadOption: strings.TrimSpace(parsed.DadOption),
	}
	if s.Text == "" {
		return Scenario{}, ErrInvalidResponse
	}
	if s.MomOption == "" {
		s.MomOption = req.MomName
	}
	if s.DadOption == "" {
		s.DadOption = req.DadName
	}

	return s, nil
}

func (c *Client) Commentary(ctx context.Context, req CommentaryRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	verdict := "the crowd read them perfectly"
	if req.CrowdChoice != req.ActualChoice {
		verdict = "the crowd got it completely wrong"
	}

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": "You are the cheeky MC of a baby shower. One witty sentence, family friendly, max 30 words. Output JSON only.",
			},
			{
				"role": "user",
				"content": fmt.Sprintf(
					"Scenario: %q. Parents %s (mom) and %s (dad). Crowd voted %s (%d vs %d), the real answer was %s, so %s; %.0f%% of guests guessed wrong. JSON field: roast (one sentence).",
					req.ScenarioText, req.MomName, req.DadName,
					req.CrowdChoice, req.MomVotes, req.DadVotes,
					req.ActualChoice, verdict, req.PerceptionGap,
				),
			},
		},
		"temperature":     0.9,
		"max_tokens":      120,
		"response_format": map[string]any{"type": "json_object"},
	}

	raw, err := c.doJSON(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	content, err := extractAssistantContent(raw)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Roast string `json:"roast"`
	}
	if err := json.Unmarshal([]byte(extractJSONPayload(content)), &parsed); err != nil {
		return "", fmt.Errorf("parse roast: %w", err)
	}

	roast := strings.TrimSpace(parsed.Roast)
	if roast == "" {
		return "", ErrInvalidResponse
	}

	return roast, nil
}

func (c *Client) doJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion request failed, status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

func extractAssistantContent(raw []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrInvalidResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrInvalidResponse
	}

	return content, nil
}

// extractJSONPayload unwraps markdown code fences some models insist on.
func extractJSONPayload(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	return s
}
