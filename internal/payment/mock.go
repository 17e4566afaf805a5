package payment

import (
	"context"

	"github.com/google/uuid"
)

// MockProvider is a payment provider that always succeeds.
// It is intended for development and testing purposes.
type MockProvider struct{}

// NewMockProvider creates a new mock payment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return ProviderMock
}

// CreateIntent returns a fake intent whose secret embeds the intent id.
func (p *MockProvider) CreateIntent(_ context.Context, _ *IntentInput) (*Intent, error) {
	id := "mock_pi_" + uuid.New().String()
	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String(),
	}, nil
}
