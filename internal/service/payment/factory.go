package payment

import (
	"fmt"
	"log/slog"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
)

// NewProvider creates a payment provider based on configuration
func NewProvider(cfg *config.Config, subscriptionService *service.SubscriptionService) (Provider, error) {
	provider := cfg.PaymentProvider

	slog.Info("initializing payment provider", "provider", provider)

	switch provider {
	case "", model.ProviderPayPal:
		if cfg.PayPalClientID == "" || cfg.PayPalClientSecret == "" {
			return nil, fmt.Errorf("%w: PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required", ErrNotConfigured)
		}
		if cfg.PayPalWebhookID == "" {
			return nil, fmt.Errorf("%w: PAYPAL_WEBHOOK_ID is required", ErrNotConfigured)
		}
		return NewPayPalProvider(cfg, subscriptionService), nil

	case model.ProviderPolar:
		if cfg.PolarAPIKey == "" {
			return nil, fmt.Errorf("%w: POLAR_API_KEY is required when using Polar provider", ErrNotConfigured)
		}
		return NewPolarProvider(cfg, subscriptionService), nil

	case model.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is required when using Stripe provider", ErrNotConfigured)
		}
		if cfg.StripeWebhookSecret == "" {
			return nil, fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET is required when using Stripe provider", ErrNotConfigured)
		}
		return NewStripeProvider(cfg, subscriptionService), nil

	default:
		return nil, fmt.Errorf("unknown payment provider: %s (supported: paypal, stripe, polar)", provider)
	}
}
