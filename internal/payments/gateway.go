// Package payments integrates the external card and transfer gateway.
// The gateway only authorizes collection; settlement of the sale
// itself never depends on a gateway round trip succeeding twice.
package payments

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

// Gateway initializes a hosted payment for a non-cash tender.
type Gateway interface {
	InitializePayment(ctx context.Context, input InitializeInput) (*Authorization, error)
}

// InitializeInput describes the payment to collect. Amount is in major
// currency units; the wire format uses subunits.
type InitializeInput struct {
	Amount      float64
	Reference   string
	CustomerRef string
	Description string
}

// Authorization is the gateway's answer: where to send the customer.
type Authorization struct {
	Reference   string `json:"reference"`
	AccessCode  string `json:"access_code"`
	CheckoutURL string `json:"checkout_url"`
}

// Gateway failure modes.
var (
	ErrGatewayUnavailable = errors.New("payments: gateway unavailable")
	ErrPaymentDeclined    = errors.New("payments: payment declined")
)

// HTTPGateway talks to the hosted gateway over its JSON API.
type HTTPGateway struct {
	baseURL string
	secret  string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPGateway constructs an HTTPGateway.
func NewHTTPGateway(baseURL, secret string, timeout time.Duration, logger *slog.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type initializeRequest struct {
	AmountSubunits int64  `json:"amount"`
	Reference      string `json:"reference"`
	CustomerRef    string `json:"customer,omitempty"`
	Description    string `json:"description,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializePayment creates a hosted checkout session.
func (g *HTTPGateway) InitializePayment(ctx context.Context, input InitializeInput) (*Authorization, error) {
	body, err := json.Marshal(initializeRequest{
		AmountSubunits: int64(input.Amount * 100),
		Reference:      input.Reference,
		CustomerRef:    input.CustomerRef,
		Description:    input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("payments: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("payment gateway unreachable", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var decoded initializeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("payments: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !decoded.Status {
		g.logger.Warn("payment initialization declined",
			slog.Int("status", resp.StatusCode), slog.String("message", decoded.Message))
		return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, decoded.Message)
	}

	return &Authorization{
		Reference:   decoded.Data.Reference,
		AccessCode:  decoded.Data.AccessCode,
		CheckoutURL: decoded.Data.AuthorizationURL,
	}, nil
}
