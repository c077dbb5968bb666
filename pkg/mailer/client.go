package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eventyard/eventyard-backend/pkg/config"
	pkgerrors "github.com/eventyard/eventyard-backend/pkg/errors"
	"github.com/eventyard/eventyard-backend/pkg/logger"
	"github.com/eventyard/eventyard-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

const sendMessagePath = "/api/send-message"

// Message is one outbound email handed to the relay.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// relayResponse is discriminated by the relay's status field, not by HTTP code
// alone.
type relayResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts messages to the self-hosted mail relay with bounded retries.
type Client struct {
	cfg     config.MailerConfig
	http    httpDoer
	logg    *logger.Logger
	metrics *metrics.MailerMetrics
}

// Result reports how a send concluded.
type Result struct {
	Attempts int
}

// NewClient builds a relay client. Metrics may be nil.
func NewClient(cfg config.MailerConfig, logg *logger.Logger, m *metrics.MailerMetrics) (*Client, error) {
	if strings.TrimSpace(cfg.RelayURL) == "" {
		return nil, fmt.Errorf("mail relay url is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		logg:    logg,
		metrics: m,
	}, nil
}

// Send delivers the message, retrying transient failures with exponential
// backoff up to the configured attempt count. A copy goes to the staff address
// when staff notification is enabled.
func (c *Client) Send(ctx context.Context, msg Message) (Result, error) {
	result, err := c.send(ctx, msg)
	if err != nil {
		return result, err
	}
	if c.cfg.NotifyStaff && c.cfg.StaffAddress != "" && !strings.EqualFold(msg.To, c.cfg.StaffAddress) {
		staffCopy := msg
		staffCopy.To = c.cfg.StaffAddress
		if _, staffErr := c.send(ctx, staffCopy); staffErr != nil && c.logg != nil {
			c.logg.Error(ctx, "staff copy delivery failed", staffErr)
		}
	}
	return result, nil
}

func (c *Client) send(ctx context.Context, msg Message) (Result, error) {
	if strings.TrimSpace(msg.To) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	attempts := c.cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	baseDelay := c.cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(baseDelay))

	result := Result{}
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result.Attempts++
		c.metrics.IncAttempt(msg.Template)
		if err := c.post(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		c.metrics.IncFailure(msg.Template)
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mail relay send failed")
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := strings.TrimRight(c.cfg.RelayURL, "/") + sendMessagePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay request: %w", err)
	}
	defer resp.Body.Close()

	var decoded relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode relay response (http %d): %w", resp.StatusCode, err)
	}
	if !strings.EqualFold(decoded.Status, "success") {
		return fmt.Errorf("relay rejected message: %s (http %d)", decoded.Message, resp.StatusCode)
	}
	return nil
}
