package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
	"github.com/storefront-labs/orderengine/pkg/httpclient"
)

const remoteName = "payment processor"

// Doer sends an HTTP request. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the retrying, circuit-broken client the http
// provider sends through.
func NewHTTPClient(timeout time.Duration, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("payment-processor"),
		logger,
	)
}

// HTTPProvider creates payment intents by POSTing JSON to a processor
// endpoint.
type HTTPProvider struct {
	client   Doer
	endpoint string
	apiKey   string
}

// NewHTTPProvider creates a provider posting to endpoint with apiKey as a
// bearer token.
func NewHTTPProvider(client Doer, endpoint, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		client:   client,
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
	}
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string {
	return ProviderHTTP
}

type intentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateIntent posts the intent and decodes {id, client_secret}. Processor
// rejections become PaymentFailed, an open breaker ServiceUnavailable.
func (p *HTTPProvider) CreateIntent(ctx context.Context, input *IntentInput) (*Intent, error) {
	body, err := json.Marshal(intentRequest{
		Amount:   input.Amount,
		Currency: input.Currency,
		Metadata: input.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payment intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create payment intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		var serverErr *httpclient.ServerError
		switch {
		case errors.Is(err, httpclient.ErrCircuitOpen):
			return nil, apperrors.ServiceUnavailable(remoteName + " is unavailable, try again later")
		case errors.As(err, &serverErr):
			return nil, fmt.Errorf("create payment intent: %w",
				apperrors.PaymentFailed(fmt.Sprintf("%s returned status %d", remoteName, serverErr.Status)))
		default:
			return nil, fmt.Errorf("create payment intent: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("create payment intent: %w", httpclient.ParseResponseError(resp, remoteName))
	}
	defer func() { _ = resp.Body.Close() }()

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if intent.ClientSecret == "" {
		return nil, apperrors.PaymentFailed(remoteName + " returned no client secret")
	}
	return &intent, nil
}
