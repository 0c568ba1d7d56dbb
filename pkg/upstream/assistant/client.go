package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	apperrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
)

const systemPrompt = "You are a helpful AI assistant which helps users solve math problems."

// Client proxies chat completions to an OpenAI-compatible endpoint.
type Client struct {
	httpClient *http.Client
	cfg        config.AssistantConfig
	logg       *logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient builds an assistant client from configuration.
func NewClient(cfg config.AssistantConfig, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logg:       logg,
	}
}

// Complete sends the user's message through the configured model and returns the reply text.
// Transient upstream failures are retried with bounded exponential backoff.
func (c *Client) Complete(ctx context.Context, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", apperrors.New(apperrors.CodeValidation, "User message cannot be empty.")
	}

	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "encoding chat request")
	}

	var reply string
	backoff := retry.WithMaxRetries(uint64(c.maxRetries()), retry.NewExponential(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, attemptErr := c.attempt(ctx, payload)
		if attemptErr != nil {
			return attemptErr
		}
		reply = result
		return nil
	})
	if err != nil {
		if typed := apperrors.As(err); typed != nil {
			return "", typed
		}
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "Failed to get response from assistant")
	}
	return reply, nil
}

func (c *Client) attempt(ctx context.Context, payload []byte) (string, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "building chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("calling assistant: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("reading assistant response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", retry.RetryableError(fmt.Errorf("assistant returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.CodeDependency, upstreamMessage(raw, resp.StatusCode))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", apperrors.Wrap(apperrors.CodeDependency, err, "decoding assistant response")
	}
	if len(decoded.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeDependency, "assistant returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *Client) maxRetries() int {
	if c.cfg.MaxRetries < 0 {
		return 0
	}
	return c.cfg.MaxRetries
}

func upstreamMessage(raw []byte, status int) string {
	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	return fmt.Sprintf("assistant returned %d", status)
}
