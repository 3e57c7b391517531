package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrHTTPBaseURLRequired is returned when HTTPConfig.BaseURL is empty.
var ErrHTTPBaseURLRequired = errors.New("sms: http base url is required")

// HTTPConfig configures the HTTP provider.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Sender     string
	Timeout    time.Duration
	MaxRetries uint64
	// Client is optional; tests inject httptest clients here.
	Client *http.Client
}

// HTTP posts messages as JSON to "<BaseURL>/messages" with a bearer API key.
// Transport failures, 429 and 5xx responses are retried with exponential
// backoff; other 4xx responses fail with ErrRejected.
type HTTP struct {
	endpoint   string
	apiKey     string
	sender     string
	maxRetries uint64
	client     *http.Client
}

type httpPayload struct {
	Sender   string `json:"sender,omitempty"`
	Receptor string `json:"receptor"`
	Message  string `json:"message"`
}

func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrHTTPBaseURLRequired
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/messages",
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}, nil
}

func (h *HTTP) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	body, err := json.Marshal(httpPayload{Sender: h.sender, Receptor: msg.To, Message: msg.Text})
	if err != nil {
		return err
	}

	b := retry.NewExponential(100 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(h.maxRetries, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		return h.post(ctx, body)
	})
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("sms: provider status %d", resp.StatusCode))
	default:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
}

func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
