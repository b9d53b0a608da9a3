package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds parameters for the LLM answer backend. Any
// OpenAI-compatible chat completions endpoint works, including local
// runtimes.
type Config struct {
	APIURL    string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

const answerSystemPrompt = `You are a voice assistant answering spoken questions. Answer in one or two short sentences of plain prose suitable for text-to-speech. No markdown, no lists, no code. If you do not know, say so briefly.`

// Answer sends a question to the backend and returns a short spoken
// answer. Only approved knowledge decisions should reach this call:
// the decision pipeline, not the backend, decides what gets asked.
func Answer(cfg Config, question string) (string, error) {
	if cfg.APIURL == "" {
		return "", fmt.Errorf("no answer backend configured")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	messages := []map[string]string{
		{"role": "system", "content": answerSystemPrompt},
		{"role": "user", "content": question},
	}

	body, _ := json.Marshal(map[string]interface{}{
		"model":       cfg.Model,
		"messages":    messages,
		"max_tokens":  cfg.MaxTokens,
		"temperature": 0.3,
	})

	req, err := http.NewRequest("POST", cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("answer request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("answer HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil || len(result.Choices) == 0 {
		return "", fmt.Errorf("empty answer response")
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty answer response")
	}
	return text, nil
}
