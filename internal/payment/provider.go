// Package payment talks to the payment processor. The processor itself is
// opaque: the storefront only asks it for a payment intent and hands the
// returned client secret to the browser.
package payment

import (
	"context"
	"fmt"
)

// IntentInput holds the parameters for creating a payment intent.
type IntentInput struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the processor's answer to a payment intent request.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Provider defines the interface for payment processor integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "http").
	Name() string

	// CreateIntent registers a payment of amount minor units.
	CreateIntent(ctx context.Context, input *IntentInput) (*Intent, error)
}

// Provider names accepted by New.
const (
	ProviderMock = "mock"
	ProviderHTTP = "http"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Endpoint string
	APIKey   string
}

// New builds the provider named by cfg.Provider. The http provider needs a
// client from NewHTTPClient.
func New(cfg Config, client Doer) (Provider, error) {
	switch cfg.Provider {
	case ProviderMock, "":
		return NewMockProvider(), nil
	case ProviderHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("payment endpoint is required for the %s provider", ProviderHTTP)
		}
		return NewHTTPProvider(client, cfg.Endpoint, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
