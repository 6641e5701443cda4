package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/ctxkeys"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/metrics"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/service/payment"
)

const maxWebhookBody = 1 << 20

type BillingHandler struct {
	subscriptionService *service.SubscriptionService
	paymentService      payment.Provider
}

// NewBillingHandler takes a nil provider when payments are not configured;
// checkout, portal and webhooks then answer 503.
func NewBillingHandler(subscriptionService *service.SubscriptionService, paymentService payment.Provider) *BillingHandler {
	return &BillingHandler{
		subscriptionService: subscriptionService,
		paymentService:      paymentService,
	}
}

func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptionService.Subscription(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err, "get subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": sub,
		"supporter":    sub.IsSupporter(),
		"price":        sub.FormatPrice(),
	})
}

func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if h.paymentService == nil {
		respondError(w, r, payment.ErrNotConfigured, "create checkout")
		return
	}
	user := ctxkeys.User(r.Context())

	checkoutURL, err := h.paymentService.CreateCheckoutURL(r.Context(), user)
	if err != nil {
		respondError(w, r, err, "create checkout")
		return
	}

	slog.Info("checkout created", "user_id", user.ID, "provider", h.paymentService.Name())
	writeJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}

func (h *BillingHandler) CustomerPortal(w http.ResponseWriter, r *http.Request) {
	if h.paymentService == nil {
		respondError(w, r, payment.ErrNotConfigured, "open billing portal")
		return
	}
	userID := ctxkeys.UserID(r.Context())

	portalURL, err := h.paymentService.CustomerPortalURL(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "open billing portal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": portalURL})
}

func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.paymentService == nil {
		respondError(w, r, payment.ErrNotConfigured, "process webhook")
		return
	}
	provider := h.paymentService.Name()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		slog.Error("failed to read webhook payload", "error", err, "provider", provider)
		writeError(w, http.StatusBadRequest, "Failed to read payload")
		return
	}
	defer func() {
		closeErr := r.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close request body", "error", closeErr)
		}
	}()

	err = h.paymentService.HandleWebhook(r.Context(), payload, r.Header)
	if err != nil {
		result := "error"
		if errors.Is(err, payment.ErrInvalidSignature) {
			result = "invalid_signature"
		}
		metrics.WebhookEvent(provider, result)
		slog.Warn("webhook rejected", "error", err, "provider", provider)
		respondError(w, r, err, "process webhook")
		return
	}

	metrics.WebhookEvent(provider, "ok")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
