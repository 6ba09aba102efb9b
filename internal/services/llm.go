package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"auracoach/internal/models"
)

// ErrModelUnavailable wraps any transport failure, timeout or non-200 from
// the language model provider. It is fatal for the current turn and is
// surfaced to the caller; no partial response is fabricated.
var ErrModelUnavailable = errors.New("language model unavailable")

// LanguageModel is the contract the pipeline has with the hosted text
// generation service. The service is an untrusted, possibly-failing,
// possibly-malformed black box; GenerateJSON output in particular must be
// validated before use.
type LanguageModel interface {
	Generate(ctx context.Context, systemPrompt string, history []models.ChatTurn, userText string, maxTokens int) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
// The cost tier for each call is derived from the user text via
// SelectModelTier, so cheap factual queries hit the cheap model.
type OpenAIClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	maxTokens  int

	mu       sync.RWMutex
	provider models.Provider
}

// NewOpenAIClient creates a language model client for the given provider.
func NewOpenAIClient(provider models.Provider, timeout time.Duration, maxTokens int, ratePerSec float64, burst int) *OpenAIClient {
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		timeout:    timeout,
		maxTokens:  maxTokens,
		provider:   provider,
	}
}

// SetProvider swaps the provider configuration. Called when the providers
// file changes on disk; in-flight requests keep the provider they started with.
func (c *OpenAIClient) SetProvider(provider models.Provider) {
	c.mu.Lock()
	c.provider = provider
	c.mu.Unlock()
	log.Printf("🔄 [LLM] Provider updated: %s (%s)", provider.Name, provider.Model)
}

func (c *OpenAIClient) currentProvider() models.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.provider
}

// Generate produces a chat completion for one turn. The model is chosen by
// the cost tier of the user text.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt string, history []models.ChatTurn, userText string, maxTokens int) (string, error) {
	provider := c.currentProvider()

	tier := SelectModelTier(userText)
	model := provider.Model
	if tier == TierCheap && provider.CheapModel != "" {
		model = provider.CheapModel
	}

	if m := GetMetrics(); m != nil {
		m.LLMCalls.WithLabelValues(string(tier)).Inc()
	}

	msgs := make([]map[string]interface{}, 0, len(history)+2)
	msgs = append(msgs, map[string]interface{}{"role": "system", "content": systemPrompt})
	for _, turn := range history {
		msgs = append(msgs, map[string]interface{}{"role": turn.Role, "content": turn.Text})
	}
	msgs = append(msgs, map[string]interface{}{"role": "user", "content": userText})

	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	body := map[string]interface{}{
		"model":      model,
		"messages":   msgs,
		"stream":     false,
		"max_tokens": maxTokens,
	}

	return c.complete(ctx, provider, body)
}

// GenerateJSON asks the model for a JSON-shaped response. The result is
// best-effort text; callers must treat it as untrusted.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	provider := c.currentProvider()

	if m := GetMetrics(); m != nil {
		m.LLMCalls.WithLabelValues(string(TierMain)).Inc()
	}

	body := map[string]interface{}{
		"model": provider.Model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": prompt},
		},
		"stream":          false,
		"temperature":     0.3, // Low temp for consistency
		"response_format": map[string]interface{}{"type": "json_object"},
	}

	return c.complete(ctx, provider, body)
}

// complete performs the HTTP round trip and extracts the first choice.
func (c *OpenAIClient) complete(ctx context.Context, provider models.Provider, requestBody map[string]interface{}) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrModelUnavailable, err)
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", strings.TrimRight(provider.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if provider.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+provider.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if m := GetMetrics(); m != nil {
			m.LLMErrors.Inc()
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrModelUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if m := GetMetrics(); m != nil {
			m.LLMErrors.Inc()
		}
		log.Printf("⚠️ [LLM] API error (status %d): %s", resp.StatusCode, truncateForLog(string(respBody), 500))
		return "", fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return "", fmt.Errorf("%w: failed to parse API response: %v", ErrModelUnavailable, err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrModelUnavailable)
	}

	return apiResponse.Choices[0].Message.Content, nil
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
