package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
)

var (
	// ErrInvalidSignature means the webhook could not be verified. Handlers answer 400.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoPortal         = errors.New("no billing portal available for free subscriptions")
	ErrNotConfigured    = errors.New("payment provider not configured")
)

// Provider defines the interface that all payment providers must implement
type Provider interface {
	// CreateCheckoutURL starts a supporter subscription checkout and returns its URL
	CreateCheckoutURL(ctx context.Context, user *model.User) (string, error)

	// CustomerPortalURL returns where the user manages an existing subscription
	CustomerPortalURL(ctx context.Context, userID string) (string, error)

	// HandleWebhook verifies and processes a webhook delivery
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error

	// Name returns the provider name (e.g., "paypal", "stripe")
	Name() string
}

func billingURL(appURL string) string {
	return appURL + "/settings/billing"
}
