package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/stripe/stripe-go/v81"
	portalsession "github.com/stripe/stripe-go/v81/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

type StripeProvider struct {
	cfg                 *config.Config
	subscriptionService *service.SubscriptionService
}

func NewStripeProvider(cfg *config.Config, subscriptionService *service.SubscriptionService) *StripeProvider {
	stripe.Key = cfg.StripeSecretKey

	slog.Info("stripe provider initialized", "app_env", cfg.AppEnv)

	return &StripeProvider{
		cfg:                 cfg,
		subscriptionService: subscriptionService,
	}
}

func (s *StripeProvider) Name() string {
	return model.ProviderStripe
}

func (s *StripeProvider) CreateCheckoutURL(ctx context.Context, user *model.User) (string, error) {
	if s.cfg.StripePriceID == "" {
		return "", fmt.Errorf("%w: STRIPE_PRICE_ID is not set", ErrNotConfigured)
	}

	sub, err := s.subscriptionService.Subscription(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(billingURL(s.cfg.AppURL) + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(billingURL(s.cfg.AppURL)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(user.ID),
		Metadata: map[string]string{
			"user_id":         user.ID,
			"subscription_id": sub.ID,
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": user.ID},
		},
		AllowPromotionCodes: stripe.Bool(true),
	}
	if sub.ProviderCustomerID != nil && *sub.ProviderCustomerID != "" && sub.Provider == model.ProviderStripe {
		params.Customer = sub.ProviderCustomerID
	} else if email := user.EmailAddress(); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	slog.Info("stripe checkout created", "user_id", user.ID, "session_id", sess.ID)
	return sess.URL, nil
}

func (s *StripeProvider) CustomerPortalURL(ctx context.Context, userID string) (string, error) {
	sub, err := s.subscriptionService.Subscription(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	if sub.ProviderCustomerID == nil || *sub.ProviderCustomerID == "" || sub.Provider != model.ProviderStripe {
		return "", ErrNoPortal
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*sub.ProviderCustomerID),
		ReturnURL: stripe.String(billingURL(s.cfg.AppURL)),
	}
	params.Context = ctx

	portalSession, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}

	slog.Info("stripe customer portal session created", "user_id", userID)
	return portalSession.URL, nil
}

func (s *StripeProvider) HandleWebhook(_ context.Context, payload []byte, headers http.Header) error {
	signature := headers.Get("Stripe-Signature")

	// Stripe API versions are backwards compatible for the fields read here
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	slog.Info("stripe webhook received", "event_type", event.Type)

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutSessionCompleted(event.Data.Raw)
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscriptionUpdated(event.Data.Raw)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(event.Data.Raw)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaymentSucceeded(event.Data.Raw)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(event.Data.Raw)
	default:
		slog.Warn("stripe webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

func (s *StripeProvider) handleCheckoutSessionCompleted(data json.RawMessage) error {
	var checkoutSession struct {
		ID                string            `json:"id"`
		CustomerID        string            `json:"customer"`
		SubscriptionID    string            `json:"subscription"`
		ClientReferenceID string            `json:"client_reference_id"`
		Metadata          map[string]string `json:"metadata"`
	}

	err := json.Unmarshal(data, &checkoutSession)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID := checkoutSession.Metadata["user_id"]
	if userID == "" {
		userID = checkoutSession.ClientReferenceID
	}
	if userID == "" {
		slog.Warn("stripe checkout session has no user_id in metadata, skipping")
		return nil
	}

	_, err = s.subscriptionService.ActivateSupporter(userID, service.Supporter{
		Provider:       model.ProviderStripe,
		CustomerID:     checkoutSession.CustomerID,
		SubscriptionID: checkoutSession.SubscriptionID,
	})
	if err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	slog.Info("stripe checkout completed", "user_id", userID, "customer_id", checkoutSession.CustomerID)
	return nil
}

type stripeSubscription struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer"`
	Status            string `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID         string `json:"id"`
				UnitAmount int64  `json:"unit_amount"`
				Currency   string `json:"currency"`
				Recurring  struct {
					Interval string `json:"interval"`
				} `json:"recurring"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

func (s *StripeProvider) handleSubscriptionUpdated(data json.RawMessage) error {
	var subscription stripeSubscription
	err := json.Unmarshal(data, &subscription)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := s.findSubscription(subscription)
	if err != nil {
		return err
	}
	if sub == nil {
		slog.Warn("stripe subscription not found, skipping update", "stripe_sub_id", subscription.ID)
		return nil
	}

	status := mapStripeStatus(subscription.Status)
	if status == model.SubscriptionStatusCancelled && !subscription.CancelAtPeriodEnd {
		err = s.subscriptionService.DowngradeToFree(sub)
		if err != nil {
			return fmt.Errorf("failed to downgrade subscription: %w", err)
		}
		slog.Info("stripe subscription ended, downgraded to free", "user_id", sub.UserID, "stripe_sub_id", subscription.ID)
		return nil
	}

	supporter := service.Supporter{
		Provider:       model.ProviderStripe,
		CustomerID:     subscription.CustomerID,
		SubscriptionID: subscription.ID,
	}
	if subscription.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(subscription.CurrentPeriodEnd, 0).UTC()
		supporter.PeriodEnd = &periodEnd
	}
	if len(subscription.Items.Data) > 0 {
		price := subscription.Items.Data[0].Price
		amount := int(price.UnitAmount)
		supporter.Amount = &amount
		supporter.Currency = price.Currency
		supporter.Interval = mapStripeInterval(price.Recurring.Interval)
	}

	sub, err = s.subscriptionService.ActivateSupporter(sub.UserID, supporter)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if subscription.CancelAtPeriodEnd {
		err = s.subscriptionService.Cancel(sub)
		if err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
	}

	slog.Info("stripe subscription updated", "user_id", sub.UserID, "stripe_sub_id", subscription.ID, "status", sub.Status)
	return nil
}

// findSubscription matches by subscription id, then by customer id for
// subscriptions started from the portal, then by the user_id metadata.
// A nil subscription means nothing matched.
func (s *StripeProvider) findSubscription(subscription stripeSubscription) (*model.Subscription, error) {
	sub, err := s.subscriptionService.ByProviderSubscriptionID(subscription.ID)
	if err == nil {
		return sub, nil
	}
	if subscription.CustomerID != "" {
		sub, err = s.subscriptionService.ByProviderCustomerID(subscription.CustomerID)
		if err == nil {
			return sub, nil
		}
	}
	userID := subscription.Metadata["user_id"]
	if userID == "" {
		return nil, nil
	}
	sub, err = s.subscriptionService.Subscription(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (s *StripeProvider) handleSubscriptionDeleted(data json.RawMessage) error {
	var subscription struct {
		ID string `json:"id"`
	}

	err := json.Unmarshal(data, &subscription)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(subscription.ID)
	if err != nil {
		slog.Warn("stripe subscription not found, ignoring deletion", "stripe_sub_id", subscription.ID)
		return nil
	}

	if sub.PlanID == model.SubscriptionPlanFree {
		slog.Warn("stripe subscription already free, ignoring deletion")
		return nil
	}

	err = s.subscriptionService.DowngradeToFree(sub)
	if err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	slog.Info("stripe subscription deleted, downgraded to free", "user_id", sub.UserID, "stripe_sub_id", subscription.ID)
	return nil
}

func (s *StripeProvider) handleInvoicePaymentSucceeded(data json.RawMessage) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}

	err := json.Unmarshal(data, &invoice)
	if err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	if invoice.SubscriptionID == "" {
		// One-time payment, not subscription-related
		return nil
	}

	sub, err := s.subscriptionService.ByProviderSubscriptionID(invoice.SubscriptionID)
	if err != nil {
		slog.Warn("stripe invoice has unknown subscription, skipping", "subscription_id", invoice.SubscriptionID)
		return nil
	}

	if sub.Status != model.SubscriptionStatusActive {
		sub.Status = model.SubscriptionStatusActive
		err = s.subscriptionService.UpdateSubscription(sub)
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
	}

	slog.Info("stripe invoice payment succeeded", "user_id", sub.UserID, "subscription_id", invoice.SubscriptionID)
	return nil
}

func (s *StripeProvider) handleInvoicePaymentFailed(data json.RawMessage) error {
	var invoice struct {
		SubscriptionID string `json:"subscription"`
	}

	err := json.Unmarshal(data, &invoice)
	if err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	if invoice.SubscriptionID == "" {
		return nil
	}

	// Stripe retries and eventually sends customer.subscription.deleted
	slog.Warn("stripe invoice payment failed", "subscription_id", invoice.SubscriptionID)
	return nil
}

func mapStripeStatus(status string) string {
	switch status {
	case "active", "trialing", "past_due":
		return model.SubscriptionStatusActive
	default:
		return model.SubscriptionStatusCancelled
	}
}

func mapStripeInterval(interval string) string {
	switch interval {
	case "month":
		return model.SubscriptionIntervalMonthly
	case "year":
		return model.SubscriptionIntervalYearly
	default:
		return interval
	}
}
