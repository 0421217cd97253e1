package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daydayarxiv/daydayarxiv/internal/config"
)

// Role identifies a configured provider slot.
type Role string

// Provider roles
const (
	RoleDefault Role = "default"
	RoleStrong  Role = "strong"
	RoleBackup  Role = "backup"
)

// primaryCyclesBeforeBackup is how many whole call-cycles (each with its own
// internal retries) the primary provider gets before the backup is consulted.
const primaryCyclesBeforeBackup = 3

// Backoff bounds for retryable failures.
const (
	retryBaseDelay = 1 * time.Second
	retryMaxDelay  = 30 * time.Second
)

// Message is one chat message sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is validated generated text plus provenance: UsedBackup is set when
// the backup provider produced the accepted output.
type Result struct {
	Text       string
	UsedBackup bool
}

// provider bundles one endpoint with its pacing and transport.
type provider struct {
	role    Role
	cfg     config.ProviderConfig
	limiter *Limiter
	http    *http.Client
}

// Client issues generation calls with retry, fallback and output validation.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	providers       map[Role]*provider
	failurePatterns []string
	logger          *slog.Logger
	sessionID       string
}

// NewClient wires the configured provider roles. The backup role is optional;
// everything else must carry a positive rpm (enforced by the limiter).
func NewClient(cfg config.LLMConfig, failurePatterns []string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	sessionID := uuid.New().String()
	c := &Client{
		providers:       make(map[Role]*provider, 3),
		failurePatterns: failurePatterns,
		logger:          logger.With("llm_session", sessionID),
		sessionID:       sessionID,
	}

	roles := map[Role]*config.ProviderConfig{
		RoleDefault: &cfg.Default,
		RoleStrong:  &cfg.Strong,
		RoleBackup:  cfg.Backup,
	}
	for role, pc := range roles {
		if pc == nil {
			continue
		}
		limiter, err := NewLimiter(pc.RPM)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", role, err)
		}
		c.providers[role] = &provider{
			role:    role,
			cfg:     *pc,
			limiter: limiter,
			http:    &http.Client{Timeout: pc.Timeout()},
		}
	}
	return c, nil
}

// SessionID returns the identifier attached to all calls from this client.
func (c *Client) SessionID() string {
	return c.sessionID
}

// HasBackup reports whether a backup provider is configured.
func (c *Client) HasBackup() bool {
	_, ok := c.providers[RoleBackup]
	return ok
}

// TranslateTitle translates a paper title into Chinese using the default role.
func (c *Client) TranslateTitle(ctx context.Context, title, abstract string) (Result, error) {
	messages := []Message{
		{Role: "system", Content: translateTitleSystemPrompt},
		{Role: "user", Content: translateTitleUserExample},
		{Role: "assistant", Content: translateTitleAssistantExample},
		{Role: "user", Content: paperUserMessage(title, abstract)},
	}
	return c.callWithFallback(ctx, RoleDefault, messages, 0.5)
}

// TLDR generates a Chinese TLDR for a paper using the default role.
func (c *Client) TLDR(ctx context.Context, title, abstract string) (Result, error) {
	messages := []Message{
		{Role: "system", Content: tldrSystemPrompt},
		{Role: "user", Content: tldrUserExample},
		{Role: "assistant", Content: tldrAssistantExample},
		{Role: "user", Content: paperUserMessage(title, abstract)},
	}
	return c.callWithFallback(ctx, RoleDefault, messages, 0.5)
}

// DailySummary generates the day's digest over the concatenated paper text
// using the strong role.
func (c *Client) DailySummary(ctx context.Context, paperText, date string) (Result, error) {
	messages := []Message{
		{Role: "system", Content: dailySummarySystemPrompt(date)},
		{Role: "user", Content: paperText + "\n" + dailySummaryUserInstruction},
	}
	return c.callWithFallback(ctx, RoleStrong, messages, 0.5)
}

// callWithFallback runs up to primaryCyclesBeforeBackup whole call-cycles
// against the primary role, validating output each time; if all fail and a
// backup is configured, the backup gets exactly one cycle whose outcome is
// final. A validation failure on the backup is a failed call and does not
// count as backup usage.
func (c *Client) callWithFallback(ctx context.Context, role Role, messages []Message, temperature float64) (Result, error) {
	primary, ok := c.providers[role]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNoProvider, role)
	}

	var lastErr error
	for cycle := 1; cycle <= primaryCyclesBeforeBackup; cycle++ {
		text, err := c.request(ctx, primary, messages, temperature)
		if err == nil {
			if !IsValidOutput(text, c.failurePatterns) {
				err = fmt.Errorf("%w: provider %s", ErrValidation, primary.role)
			} else {
				return Result{Text: text}, nil
			}
		}
		lastErr = err
		c.logger.Warn("provider call failed",
			"provider", primary.role,
			"model", primary.cfg.Model,
			"cycle", cycle,
			"max_cycles", primaryCyclesBeforeBackup,
			"error", err)
		if ctx.Err() != nil {
			return Result{}, lastErr
		}
	}

	backup, ok := c.providers[RoleBackup]
	if !ok {
		return Result{}, lastErr
	}

	text, err := c.request(ctx, backup, messages, temperature)
	if err == nil {
		if !IsValidOutput(text, c.failurePatterns) {
			err = fmt.Errorf("%w: provider %s", ErrValidation, backup.role)
		} else {
			return Result{Text: text, UsedBackup: true}, nil
		}
	}
	c.logger.Warn("backup provider call failed",
		"model", backup.cfg.Model,
		"error", err)
	return Result{}, err
}

// request performs one call-cycle against a single provider: the rate limiter
// is acquired before every attempt, retryable failures back off exponentially
// with jitter, and non-retryable failures abort the cycle immediately.
func (c *Client) request(ctx context.Context, p *provider, messages []Message, temperature float64) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %v", ErrRetryable, err)
		}

		c.logger.Debug("calling LLM",
			"provider", p.role,
			"model", p.cfg.Model,
			"attempt", attempt+1,
			"max_attempts", p.cfg.MaxRetries+1)

		text, err := c.doRequest(ctx, p, messages, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if errors.Is(err, ErrNonRetryable) {
			return "", err
		}
		if attempt == p.cfg.MaxRetries {
			break
		}

		delay := c.backoffDelay(attempt)
		c.logger.Debug("retrying after delay",
			"provider", p.role,
			"attempt", attempt+1,
			"delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrRetryable, ctx.Err())
		}
	}
	return "", lastErr
}

// backoffDelay computes base * 2^attempt scaled by a jitter factor in
// [0.5, 1.0), capped at retryMaxDelay. The top-level rand functions are
// used because workers retry concurrently through one shared Client.
func (c *Client) backoffDelay(attempt int) time.Duration {
	backoff := float64(retryBaseDelay) * math.Pow(2, float64(attempt))
	jitter := 0.5 + rand.Float64()*0.5
	delay := time.Duration(backoff * jitter)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// chatRequest is the OpenAI-compatible chat-completions request body.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// chatResponse is the subset of the chat-completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// doRequest performs a single HTTP round trip and maps the outcome onto the
// retryable/non-retryable taxonomy. An empty completion is retryable: the
// transport worked but the model produced nothing usable.
func (c *Client) doRequest(ctx context.Context, p *provider, messages []Message, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrNonRetryable, err)
	}

	endpoint := strings.TrimSuffix(p.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: new request: %v", ErrNonRetryable, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", classifyStatus(resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRetryable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from LLM", ErrRetryable)
	}
	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty content from LLM", ErrRetryable)
	}
	return content, nil
}
