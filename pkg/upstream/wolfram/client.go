package wolfram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	apperrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
)

// MessageUnsupported is returned verbatim when the upstream cannot answer
// the query (HTTP 501 from the short answers API).
const MessageUnsupported = "This operation is not supported. Try simplifying your input or breaking it into steps."

const messageUpstreamFailed = "Failed to get response from Wolfram Alpha"

// Client queries the Wolfram Alpha short answers API.
type Client struct {
	httpClient *http.Client
	cfg        config.WolframConfig
	logg       *logger.Logger
}

// NewClient builds a Wolfram client from configuration.
func NewClient(cfg config.WolframConfig, logg *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logg:       logg,
	}
}

// Result computes the plain-text answer for the query. A 501 from upstream
// means the operation is unsupported and is not retried.
func (c *Client) Result(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperrors.New(apperrors.CodeValidation, "Query is required")
	}

	var answer string
	backoff := retry.WithMaxRetries(uint64(c.maxRetries()), retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, attemptErr := c.attempt(ctx, query)
		if attemptErr != nil {
			return attemptErr
		}
		answer = result
		return nil
	})
	if err != nil {
		if typed := apperrors.As(err); typed != nil {
			return "", typed
		}
		return "", apperrors.Wrap(apperrors.CodeDependency, err, messageUpstreamFailed)
	}
	return answer, nil
}

func (c *Client) attempt(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("appid", c.cfg.AppID)
	params.Set("i", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "building wolfram request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("calling wolfram: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.RetryableError(fmt.Errorf("reading wolfram response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return string(raw), nil
	case resp.StatusCode == http.StatusNotImplemented:
		return "", apperrors.New(apperrors.CodeDependency, MessageUnsupported)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", retry.RetryableError(fmt.Errorf("wolfram returned %d", resp.StatusCode))
	default:
		return "", apperrors.New(apperrors.CodeDependency, messageUpstreamFailed)
	}
}

func (c *Client) maxRetries() int {
	if c.cfg.MaxRetries < 0 {
		return 0
	}
	return c.cfg.MaxRetries
}
