package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrRejected reports a relay response outside the 2xx range.
var ErrRejected = errors.New("mail relay rejected message")

// Sender is the outbound OTP transport. Implementations must return an error
// whenever the code was not handed to the relay.
type Sender interface {
	Send(ctx context.Context, to, code string) error
}

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, to, code string) error

func (f SenderFunc) Send(ctx context.Context, to, code string) error {
	return f(ctx, to, code)
}

// Message is the JSON body posted to the relay.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Code    string `json:"code"`
}

// HTTPConfig configures [HTTPSender].
type HTTPConfig struct {
	URL     string
	APIKey  string
	Subject string
	Timeout time.Duration
}

// HTTPSender posts each code as JSON to a mail relay endpoint.
type HTTPSender struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPSender returns a sender for cfg. A nil client gets a dedicated one
// with cfg.Timeout (default 10s).
func NewHTTPSender(cfg HTTPConfig, client *http.Client) (*HTTPSender, error) {
	if cfg.URL == "" {
		return nil, errors.New("mail relay url required")
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your verification code"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPSender{config: cfg, client: client}, nil
}

func (s *HTTPSender) Send(ctx context.Context, to, code string) error {
	body, err := json.Marshal(Message{To: to, Subject: s.config.Subject, Code: code})
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	return nil
}

// LogSender writes codes to a logger at DEBUG. It is meant for local
// development only.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, code string) error {
	s.logger.DebugContext(ctx, "verification code", "to", to, "code", code)
	return nil
}
