// Package push sends best-effort mobile push messages through the OneSignal
// REST API.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"guardhouse/pkg/platform/circuit"
	pstrings "guardhouse/pkg/platform/strings"
)

const (
	DefaultBaseURL = "https://onesignal.com"
	DefaultTimeout = 5 * time.Second

	notificationsPath = "/api/v1/notifications"
)

var (
	// ErrNotConfigured means no app id or API key was supplied; sends are skipped.
	ErrNotConfigured = errors.New("push gateway not configured")
	// ErrNoTargets means the message had no usable device address.
	ErrNoTargets = errors.New("push message has no targets")
	// ErrCircuitOpen means recent sends failed and the gateway is being rested.
	ErrCircuitOpen = errors.New("push gateway circuit open")
)

// Message is one push to a set of OneSignal player ids.
type Message struct {
	Targets []string
	Title   string
	Body    string
	Data    map[string]any
}

// Receipt is the gateway's acknowledgement.
type Receipt struct {
	ID         string `json:"id"`
	Recipients int    `json:"recipients"`
}

type Config struct {
	AppID   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Retries is the number of additional attempts on network errors and 5xx.
	Retries int
}

func (c Config) Enabled() bool {
	return c.AppID != "" && c.APIKey != ""
}

type payload struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]any    `json:"data,omitempty"`
}

type apiError struct {
	Errors any `json:"errors"`
}

// Client is the OneSignal gateway client.
type Client struct {
	http    *resty.Client
	cfg     Config
	breaker *circuit.Breaker
	logger  *zap.Logger
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBreaker replaces the default breaker (5 failures, 30s cooldown).
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:     cfg,
		breaker: circuit.New("push", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		}).
		SetHeader("Content-Type", "application/json; charset=utf-8").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "Basic "+cfg.APIKey)
	return c
}

// Send delivers msg. Blank and duplicate targets are dropped first.
func (c *Client) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if !c.cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	targets := pstrings.DedupeAndTrim(msg.Targets)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	var (
		receipt Receipt
		failure apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload{
			AppID:            c.cfg.AppID,
			IncludePlayerIDs: targets,
			Headings:         map[string]string{"en": msg.Title},
			Contents:         map[string]string{"en": msg.Body},
			Data:             msg.Data,
		}).
		SetResult(&receipt).
		SetError(&failure).
		Post(notificationsPath)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("send push: %w", err)
	}
	if resp.IsError() {
		if resp.StatusCode() >= http.StatusInternalServerError {
			c.recordFailure()
		}
		c.logger.Warn("push gateway rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.Any("errors", failure.Errors),
		)
		return nil, fmt.Errorf("push gateway returned %d", resp.StatusCode())
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("push gateway circuit closed")
	}
	return &receipt, nil
}

func (c *Client) recordFailure() {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("push gateway circuit opened")
	}
}
