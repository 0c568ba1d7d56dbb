package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mathmindlabs/mathmind-backend/pkg/config"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
)

// Message is a single transactional email.
type Message struct {
	ToEmail string `json:"to_email"`
	ToName  string `json:"to_name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendRequest struct {
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
	Message
}

// Sender is the surface consumed by the email worker.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client posts messages to the transactional mail HTTP API.
type Client struct {
	httpClient *http.Client
	cfg        config.MailConfig
	logg       *logger.Logger
}

var errAPIURLRequired = errors.New("mail api url is required")

// NewClient builds a mail client from configuration.
func NewClient(cfg config.MailConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, errAPIURLRequired
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
		logg:       logg,
	}, nil
}

// Send delivers the message through the configured provider.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	payload, err := json.Marshal(sendRequest{
		FromEmail: c.cfg.FromEmail,
		FromName:  c.cfg.FromName,
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("encoding mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("mail provider returned %d", resp.StatusCode)
	}

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "to", msg.ToEmail), "email dispatched")
	}
	return nil
}
