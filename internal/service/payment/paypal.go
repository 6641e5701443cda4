package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	paypalLiveAPI    = "https://api-m.paypal.com"
	paypalSandboxAPI = "https://api-m.sandbox.paypal.com"
)

type PayPalProvider struct {
	cfg                 *config.Config
	subscriptionService *service.SubscriptionService
	apiBase             string
	portalURL           string
	httpClient          *http.Client
}

func NewPayPalProvider(cfg *config.Config, subscriptionService *service.SubscriptionService) *PayPalProvider {
	apiBase := paypalLiveAPI
	portalURL := "https://www.paypal.com/myaccount/autopay/"
	if cfg.PayPalSandboxMode {
		apiBase = paypalSandboxAPI
		portalURL = "https://www.sandbox.paypal.com/myaccount/autopay/"
		slog.Info("paypal using sandbox mode", "app_env", cfg.AppEnv)
	} else {
		slog.Info("paypal using live mode", "app_env", cfg.AppEnv)
	}

	return newPayPalProvider(cfg, subscriptionService, apiBase, portalURL)
}

func newPayPalProvider(cfg *config.Config, subscriptionService *service.SubscriptionService, apiBase, portalURL string) *PayPalProvider {
	credentials := clientcredentials.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		TokenURL:     apiBase + "/v1/oauth2/token",
	}

	client := credentials.Client(context.Background())
	client.Timeout = 15 * time.Second

	return &PayPalProvider{
		cfg:                 cfg,
		subscriptionService: subscriptionService,
		apiBase:             apiBase,
		portalURL:           portalURL,
		httpClient:          client,
	}
}

func (p *PayPalProvider) Name() string {
	return model.ProviderPayPal
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

func (p *PayPalProvider) CreateCheckoutURL(ctx context.Context, user *model.User) (string, error) {
	if p.cfg.PayPalPlanID == "" {
		return "", fmt.Errorf("%w: PAYPAL_PLAN_ID is not set", ErrNotConfigured)
	}

	body := map[string]any{
		"plan_id":   p.cfg.PayPalPlanID,
		"custom_id": user.ID,
		"application_context": map[string]any{
			"brand_name":  p.cfg.AppName,
			"user_action": "SUBSCRIBE_NOW",
			"return_url":  billingURL(p.cfg.AppURL) + "?checkout=success",
			"cancel_url":  billingURL(p.cfg.AppURL),
		},
	}
	if email := user.EmailAddress(); email != "" {
		body["subscriber"] = map[string]any{
			"email_address": email,
			"name":          map[string]string{"given_name": user.Name()},
		}
	}

	var created struct {
		ID    string       `json:"id"`
		Links []paypalLink `json:"links"`
	}
	err := p.call(ctx, http.MethodPost, "/v1/billing/subscriptions", body, &created)
	if err != nil {
		return "", fmt.Errorf("failed to create paypal subscription: %w", err)
	}

	for _, link := range created.Links {
		if link.Rel == "approve" {
			slog.Info("paypal checkout created", "user_id", user.ID, "paypal_sub_id", created.ID)
			return link.Href, nil
		}
	}
	return "", errors.New("paypal subscription has no approve link")
}

// CustomerPortalURL points at PayPal's automatic payments page. PayPal has no
// per-customer portal sessions.
func (p *PayPalProvider) CustomerPortalURL(_ context.Context, userID string) (string, error) {
	sub, err := p.subscriptionService.Subscription(userID)
	if err != nil {
		return "", fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub.ProviderSubscriptionID == nil || sub.Provider != model.ProviderPayPal {
		return "", ErrNoPortal
	}
	return p.portalURL, nil
}

type paypalEvent struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Resource  json.RawMessage `json:"resource"`
}

func (p *PayPalProvider) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	err := p.verify(ctx, payload, headers)
	if err != nil {
		return err
	}

	var event paypalEvent
	err = json.Unmarshal(payload, &event)
	if err != nil {
		return fmt.Errorf("failed to parse webhook: %w", err)
	}

	slog.Info("paypal webhook received", "event_type", event.EventType, "event_id", event.ID)

	switch event.EventType {
	case "BILLING.SUBSCRIPTION.ACTIVATED", "BILLING.SUBSCRIPTION.UPDATED":
		return p.handleSubscriptionActive(event.Resource)
	case "BILLING.SUBSCRIPTION.CANCELLED", "BILLING.SUBSCRIPTION.SUSPENDED":
		return p.handleSubscriptionCancelled(event.Resource)
	case "BILLING.SUBSCRIPTION.EXPIRED":
		return p.handleSubscriptionExpired(event.Resource)
	case "PAYMENT.SALE.COMPLETED":
		return p.handleSaleCompleted(event.Resource)
	default:
		slog.Warn("paypal webhook unknown event type", "event_type", event.EventType)
		return nil
	}
}

// verify asks PayPal to check the transmission signature.
func (p *PayPalProvider) verify(ctx context.Context, payload []byte, headers http.Header) error {
	required := []string{
		"PAYPAL-AUTH-ALGO",
		"PAYPAL-CERT-URL",
		"PAYPAL-TRANSMISSION-ID",
		"PAYPAL-TRANSMISSION-SIG",
		"PAYPAL-TRANSMISSION-TIME",
	}
	for _, h := range required {
		if headers.Get(h) == "" {
			return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, h)
		}
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%w: body is not JSON", ErrInvalidSignature)
	}

	body := map[string]any{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        p.cfg.PayPalWebhookID,
		"webhook_event":     json.RawMessage(payload),
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	err := p.call(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", body, &result)
	if err != nil {
		return fmt.Errorf("failed to verify webhook signature: %w", err)
	}
	if result.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("%w: verification status %q", ErrInvalidSignature, result.VerificationStatus)
	}
	return nil
}

type paypalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalSubscription struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CustomID   string `json:"custom_id"`
	PlanID     string `json:"plan_id"`
	Subscriber struct {
		PayerID string `json:"payer_id"`
	} `json:"subscriber"`
	BillingInfo struct {
		NextBillingTime string `json:"next_billing_time"`
		LastPayment     struct {
			Amount paypalMoney `json:"amount"`
		} `json:"last_payment"`
	} `json:"billing_info"`
}

// owner finds the local subscription a PayPal subscription belongs to.
// custom_id carries the user id set at checkout.
func (p *PayPalProvider) owner(ps paypalSubscription) (*model.Subscription, error) {
	if ps.CustomID != "" {
		return p.subscriptionService.Subscription(ps.CustomID)
	}
	return p.subscriptionService.ByProviderSubscriptionID(ps.ID)
}

func (p *PayPalProvider) handleSubscriptionActive(data json.RawMessage) error {
	var ps paypalSubscription
	err := json.Unmarshal(data, &ps)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	if ps.Status != "" && ps.Status != "ACTIVE" {
		slog.Info("paypal subscription not active, skipping", "paypal_sub_id", ps.ID, "status", ps.Status)
		return nil
	}

	sub, err := p.owner(ps)
	if err != nil {
		slog.Warn("paypal subscription has no local owner, skipping", "paypal_sub_id", ps.ID, "error", err)
		return nil
	}

	supporter := service.Supporter{
		Provider:       model.ProviderPayPal,
		CustomerID:     ps.Subscriber.PayerID,
		SubscriptionID: ps.ID,
		Currency:       lowerCurrency(ps.BillingInfo.LastPayment.Amount.CurrencyCode),
		Interval:       model.SubscriptionIntervalMonthly,
	}
	if t, err := time.Parse(time.RFC3339, ps.BillingInfo.NextBillingTime); err == nil {
		supporter.PeriodEnd = &t
	}
	if cents, ok := parseCents(ps.BillingInfo.LastPayment.Amount.Value); ok {
		supporter.Amount = &cents
	}

	_, err = p.subscriptionService.ActivateSupporter(sub.UserID, supporter)
	if err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	slog.Info("paypal subscription active", "user_id", sub.UserID, "paypal_sub_id", ps.ID)
	return nil
}

func (p *PayPalProvider) handleSubscriptionCancelled(data json.RawMessage) error {
	var ps paypalSubscription
	err := json.Unmarshal(data, &ps)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(ps.ID)
	if err != nil {
		slog.Warn("paypal subscription not found, ignoring cancellation", "paypal_sub_id", ps.ID)
		return nil
	}

	err = p.subscriptionService.Cancel(sub)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	slog.Info("paypal subscription cancelled", "user_id", sub.UserID, "paypal_sub_id", ps.ID, "status", ps.Status)
	return nil
}

func (p *PayPalProvider) handleSubscriptionExpired(data json.RawMessage) error {
	var ps paypalSubscription
	err := json.Unmarshal(data, &ps)
	if err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(ps.ID)
	if err != nil {
		slog.Warn("paypal subscription not found, ignoring expiry", "paypal_sub_id", ps.ID)
		return nil
	}

	err = p.subscriptionService.DowngradeToFree(sub)
	if err != nil {
		return fmt.Errorf("failed to downgrade subscription: %w", err)
	}

	slog.Info("paypal subscription expired, downgraded to free", "user_id", sub.UserID, "paypal_sub_id", ps.ID)
	return nil
}

func (p *PayPalProvider) handleSaleCompleted(data json.RawMessage) error {
	var sale struct {
		ID                 string `json:"id"`
		BillingAgreementID string `json:"billing_agreement_id"`
		Amount             struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"amount"`
	}
	err := json.Unmarshal(data, &sale)
	if err != nil {
		return fmt.Errorf("failed to parse sale: %w", err)
	}

	if sale.BillingAgreementID == "" {
		// One-time payment, not subscription-related
		return nil
	}

	sub, err := p.subscriptionService.ByProviderSubscriptionID(sale.BillingAgreementID)
	if err != nil {
		slog.Warn("paypal sale has unknown subscription, skipping", "paypal_sub_id", sale.BillingAgreementID)
		return nil
	}

	sub.Status = model.SubscriptionStatusActive
	if cents, ok := parseCents(sale.Amount.Total); ok {
		sub.Amount = &cents
		sub.Currency = lowerCurrency(sale.Amount.Currency)
	}

	err = p.subscriptionService.UpdateSubscription(sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	slog.Info("paypal payment completed", "user_id", sub.UserID, "sale_id", sale.ID)
	return nil
}

func (p *PayPalProvider) call(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("paypal %s %s returned status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// parseCents turns "5.00" into 500.
func parseCents(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(math.Round(f * 100)), true
}

func lowerCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
