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
	polargo "github.com/polarsource/polar-go"
	"github.com/polarsource/polar-go/models/components"
	"github.com/polarsource/polar-go/models/operations"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

type PolarProvider struct {
	cfg                 *config.Config
	subscriptionService *service.SubscriptionService
	client              *polargo.Polar
}

func NewPolarProvider(cfg *config.Config, subscriptionService *service.SubscriptionService) *PolarProvider {
	var serverOption polargo.SDKOption
	if cfg.PolarSandboxMode {
		serverOption = polargo.WithServer(polargo.ServerSandbox)
		slog.Info("polar using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		serverOption = polargo.WithServer(polargo.ServerProduction)
		slog.Info("polar using production mode", "app_env", cfg.AppEnv)
	}

	client := polargo.New(
		polargo.WithSecurity(cfg.PolarAPIKey),
		serverOption,
	)

	return &PolarProvider{
		cfg:                 cfg,
		subscriptionService: subscriptionService,
		client:              client,
	}
}

func (p *PolarProvider) Name() string {
	return model.ProviderPolar
}

func (p *PolarProvider) CreateCheckoutURL(ctx context.Context, user *model.User) (string, error) {
	if p.cfg.PolarProductID == "" {
		return "", fmt.Errorf("%w: POLAR_PRODUCT_ID is not set", ErrNotConfigured)
	}

	sub, err := p.subscriptionService.Subscription(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	metadata := map[string]components.CheckoutCreateMetadata{
		"user_id":         components.CreateCheckoutCreateMetadataStr(user.ID),
		"subscription_id": components.CreateCheckoutCreateMetadataStr(sub.ID),
	}

	create := components.CheckoutCreate{
		Products:           []string{p.cfg.PolarProductID},
		SuccessURL:         polargo.String(billingURL(p.cfg.AppURL) + "?checkout=success"),
		ReturnURL:          polargo.String(billingURL(p.cfg.AppURL)),
		CustomerName:       polargo.String(user.Name()),
		AllowDiscountCodes: polargo.Bool(true),
		Metadata:           metadata,
	}
	if email := user.EmailAddress(); email != "" {
		create.CustomerEmail = polargo.String(email)
	}

	res, err := p.client.Checkouts.Create(ctx, create)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout: %w", err)
	}

	if res == nil || res.Checkout == nil {
		return "", fmt.Errorf("checkout response is nil")
	}

	slog.Info("polar checkout created", "user_id", user.ID, "checkout_id", res.Checkout.ID)
	return res.Checkout.URL, nil
}

func (p *PolarProvider) CustomerPortalURL(ctx context.Context, userID string) (string, error) {
	sub, err := p.subscriptionService.Subscription(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}

	if sub.ProviderCustomerID == nil || *sub.ProviderCustomerID == "" || sub.Provider != model.ProviderPolar {
		return "", ErrNoPortal
	}

	sessionCreate := operations.CreateCustomerSessionsCreateCustomerSessionCreateCustomerSessionCustomerIDCreate(
		components.CustomerSessionCustomerIDCreate{
			CustomerID: *sub.ProviderCustomerID,
			ReturnURL:  polargo.String(billingURL(p.cfg.AppURL)),
		},
	)
	res, err := p.client.CustomerSessions.Create(ctx, sessionCreate)
	if err != nil {
		return "", fmt.Errorf("failed to create customer portal session: %w", err)
	}

	if res == nil || res.CustomerSession == nil {
		return "", fmt.Errorf("customer portal response is nil")
	}

	slog.Info("polar customer portal session created", "user_id", userID)
	return res.CustomerSession.CustomerPortalURL, nil
}

func (p *PolarProvider) HandleWebhook(_ context.Context, payload []byte, headers http.Header) error {
	if p.cfg.PolarWebhookSecret == "" {
		return fmt.Errorf("%w: POLAR_WEBHOOK_SECRET is not set", ErrNotConfigured)
	}

	wh, err := standardwebhooks.NewWebhookRaw([]byte(p.cfg.PolarWebhookSecret))
	if err != nil {
		return fmt.Errorf("failed to create webhook verifier: %w", err)
	}

	err = wh.Verify(payload, headers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	err = json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("polar webhook received", "event_type", event.Type)

	switch event.Type {
	case "subscription.created", "subscription.active", "subscription.updated":
		return p.handleSubscriptionUpdated(event.Data)
	case "subscription.canceled":
		return p.handleSubscriptionCanceled(event.Data)
	case "subscription.uncanceled":
		return p.handleSubscriptionUncanceled(event.Data)
	case "subscription.revoked":
		return p.handleSubscriptionRevoked(event.Data)
	default:
		slog.Warn("polar webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

type polarSubscription struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customer_id"`
	Amount            *int              `json:"amount"`
	Currency          *string           `json:"currency"`
	RecurringInterval *string           `json:"recurring_interval"`
	Status            string            `json:"status"`
	CurrentPeriodEnd  *string           `json:"current_period_end"`
	EndedAt           *string           `json:"ended_at"`
	Metadata          map[string]string `json:"metadata"`
}

func (p *PolarProvider) handleSubscriptionUpdated(data json.RawMessage) error {
	var subscription polarSubscription
	err := json.Unmarshal(data, &subscription)
	if err != nil {
		return fmt.Errorf("failed to parse subscription data: %w", err)
	}

	userID := subscription.Metadata["user_id"]
	if userID == "" {
		sub, err := p.subscriptionService.ByProviderSubscriptionID(subscription.ID)
		if err != nil {
			slog.Warn("polar subscription has no user_id and is unknown, skipping", "polar_sub_id", subscription.ID)
			return nil
		}
		userID = sub.UserID
	}

	if subscription.EndedAt != nil {
		sub, err := p.subscriptionService.Subscription(userID)
		if err != nil {
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		err = p.subscriptionService.DowngradeToFree(sub)
		if err != nil {
			return fmt.Errorf("failed to downgrade subscription: %w", err)
		}
		slog.Info("polar subscription ended, downgraded to free", "user_id", userID, "polar_sub_id", subscription.ID)
		return nil
	}

	if subscription.Status != "" && subscription.Status != "active" && subscription.Status != "trialing" {
		slog.Info("polar subscription not active, skipping", "polar_sub_id", subscription.ID, "status", subscription.Status)
		return nil
	}

	supporter := service.Supporter{
		Provider:       model.ProviderPolar,
		CustomerID:     subscription.CustomerID,
		SubscriptionID: subscription.ID,
		Amount:         subscription.Amount,
	}
	if subscription.Currency != nil {
		supporter.Currency = *subscription.Currency
	}
	if subscription.RecurringInterval != nil {
		supporter.Interval = mapPolarInterval(*subscription.RecurringInterval)
	}
	if subscription.CurrentPeriodEnd != nil {
		if periodEnd, err := parseTime(*subscription.CurrentPeriodEnd); err == nil {
			supporter.PeriodEnd = &periodEnd
		}
	}

	_, err = p.subscriptionService.ActivateSupporter(userID, supporter)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("polar subscription active", "user_id", userID, "polar_sub_id", subscription.ID)
	return nil
}

func (p *PolarProvider) handleSubscriptionCanceled(data json.RawMessage) error {
	var subData polarSubscription
	err := json.Unmarshal(data, &subData)
	if err != nil {
		return fmt.Errorf("failed to parse subscription data: %w", err)
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(subData.ID)
	if err != nil {
		slog.Warn("polar subscription not found, ignoring cancellation", "polar_sub_id", subData.ID)
		return nil
	}

	if sub.PlanID == model.SubscriptionPlanFree {
		slog.Warn("polar subscription already free, ignoring cancellation")
		return nil
	}

	if subData.CurrentPeriodEnd != nil {
		if periodEnd, err := parseTime(*subData.CurrentPeriodEnd); err == nil {
			sub.CurrentPeriodEnd = &periodEnd
		}
	}

	err = p.subscriptionService.Cancel(sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("polar subscription canceled", "user_id", sub.UserID, "polar_sub_id", subData.ID)
	return nil
}

func (p *PolarProvider) handleSubscriptionUncanceled(data json.RawMessage) error {
	var subData struct {
		ID string `json:"id"`
	}

	err := json.Unmarshal(data, &subData)
	if err != nil {
		return fmt.Errorf("failed to parse subscription data: %w", err)
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(subData.ID)
	if err != nil {
		slog.Warn("polar subscription not found, ignoring uncanceled event", "polar_sub_id", subData.ID)
		return nil
	}

	sub.Status = model.SubscriptionStatusActive

	err = p.subscriptionService.UpdateSubscription(sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("polar subscription uncanceled", "user_id", sub.UserID, "polar_sub_id", subData.ID)
	return nil
}

func (p *PolarProvider) handleSubscriptionRevoked(data json.RawMessage) error {
	var subData struct {
		ID string `json:"id"`
	}

	err := json.Unmarshal(data, &subData)
	if err != nil {
		return fmt.Errorf("failed to parse subscription data: %w", err)
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(subData.ID)
	if err != nil {
		slog.Warn("polar subscription not found, ignoring revoked event", "polar_sub_id", subData.ID)
		return nil
	}

	if sub.PlanID == model.SubscriptionPlanFree {
		slog.Warn("polar subscription already free, ignoring revoked event")
		return nil
	}

	err = p.subscriptionService.DowngradeToFree(sub)
	if err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	slog.Info("polar subscription revoked, immediate downgrade to free", "user_id", sub.UserID, "polar_sub_id", subData.ID)
	return nil
}

func mapPolarInterval(interval string) string {
	switch interval {
	case "month":
		return model.SubscriptionIntervalMonthly
	case "year":
		return model.SubscriptionIntervalYearly
	default:
		return interval
	}
}

func parseTime(timeStr string) (time.Time, error) {
	return time.Parse(time.RFC3339, timeStr)
}
