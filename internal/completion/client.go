// Package completion implements the text-completion client NPCs use to
// generate in-character replies, backed by Google's genai SDK.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/npcbot/internal/config"
)

var (
	// ErrEmptyCompletion is returned when the model produced no usable text.
	ErrEmptyCompletion = errors.New("completion returned no text")
	// ErrBlocked is returned when the prompt or the response was blocked by
	// the safety filter.
	ErrBlocked = errors.New("completion blocked by safety filter")
)

// Client generates a completion for a prompt string with fixed generation
// parameters.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// generator is the subset of genai.Models used by the client.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models        generator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a genai-backed completion client.
func NewClient(ctx context.Context, cfg config.CompletionConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newSDKClient(gi.Models, cfg, log)
	c.log.Info("Completion client initialized successfully", "model", cfg.Model)
	return c, nil
}

func newSDKClient(models generator, cfg config.CompletionConfig, log *slog.Logger) *sdkClient {
	if log == nil {
		log = slog.Default()
	}
	temperature := cfg.Temperature
	return &sdkClient{
		models: models,
		log:    log.With("component", "completion_client"),
		contentConfig: &genai.GenerateContentConfig{
			Temperature:     &temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		modelName:  cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Complete sends the prompt as a single user turn and returns the trimmed
// completion text.
func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.log.DebugContext(ctx, "Requesting completion", "prompt_length", len(prompt))
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return "", err
	}
	return c.extractText(ctx, resp)
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		code, ok := apiErrorCode(err)
		if !ok || (code != 500 && code != 503) {
			c.log.ErrorContext(ctx, "Completion call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("completion call failed: %w", err)
		}
		if i == c.maxRetries {
			break
		}

		c.log.WarnContext(ctx, "Retrying completion call", "attempt", i+1, "max_retries", c.maxRetries, "code", code, "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("completion call cancelled during retry: %w", ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}

	c.log.ErrorContext(ctx, "Completion call failed after max retries", "error", err)
	return nil, fmt.Errorf("completion call failed after %d retries: %w", c.maxRetries, err)
}

// apiErrorCode returns the HTTP status of a genai API error, which the SDK
// may surface as a value or a pointer.
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyCompletion
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.WarnContext(ctx, "Completion request blocked", "reason", reason)
		return "", fmt.Errorf("%w: %s", ErrBlocked, reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Completion response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyCompletion, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
