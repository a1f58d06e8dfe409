package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// HTTPSMSSender posts messages to the SMS gateway's JSON API.
type HTTPSMSSender struct {
	url      string
	token    string
	senderID string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPSMSSender constructs an HTTPSMSSender.
func NewHTTPSMSSender(url, token, senderID string, logger *slog.Logger) *HTTPSMSSender {
	return &HTTPSMSSender{
		url:      url,
		token:    token,
		senderID: senderID,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// Send posts one message. Non-2xx responses are errors so Asynq
// retries with backoff.
func (s *HTTPSMSSender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(smsRequest{To: phone, From: s.senderID, Message: message})
	if err != nil {
		return fmt.Errorf("sms: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("sms: gateway returned status %d", resp.StatusCode)
	}
	s.logger.Debug("sms delivered", slog.String("to", phone))
	return nil
}

// NopSMSSender drops messages. Used when no gateway is configured.
type NopSMSSender struct{}

// Send discards the message.
func (NopSMSSender) Send(ctx context.Context, phone, message string) error {
	return nil
}
