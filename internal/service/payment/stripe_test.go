package payment

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testStripeSecret = "whsec_test_mindvault"

func newTestStripe(t *testing.T) (*StripeProvider, *model.User) {
	t.Helper()

	subs, user := newSubscriptions(t)
	cfg := &config.Config{
		AppURL:              "http://localhost:8080",
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testStripeSecret,
	}
	return NewStripeProvider(cfg, subs), user
}

func signedStripeEvent(t *testing.T, secret, eventType, object string) ([]byte, http.Header) {
	t.Helper()

	payload := []byte(fmt.Sprintf(`{"id":"evt_test","object":"event","api_version":"2024-06-20","type":%q,"data":{"object":%s}}`, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  secret,
	})

	headers := http.Header{}
	headers.Set("Stripe-Signature", signed.Header)
	return signed.Payload, headers
}

func TestStripeCheckoutCompleted(t *testing.T) {
	p, user := newTestStripe(t)

	object := fmt.Sprintf(`{"id":"cs_test_1","object":"checkout.session","customer":"cus_123","subscription":"sub_123","client_reference_id":%q,"metadata":{"user_id":%q}}`, user.ID, user.ID)
	payload, headers := signedStripeEvent(t, testStripeSecret, "checkout.session.completed", object)
	require.NoError(t, p.HandleWebhook(context.Background(), payload, headers))

	sub, err := p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsSupporter())
	assert.Equal(t, model.ProviderStripe, sub.Provider)
	require.NotNil(t, sub.ProviderSubscriptionID)
	assert.Equal(t, "sub_123", *sub.ProviderSubscriptionID)
}

func TestStripeSubscriptionUpdates(t *testing.T) {
	p, user := newTestStripe(t)
	ctx := context.Background()

	active := fmt.Sprintf(`{"id":"sub_456","object":"subscription","customer":"cus_456","status":"active","current_period_end":1773835200,
		"cancel_at_period_end":false,"metadata":{"user_id":%q},
		"items":{"data":[{"price":{"id":"price_1","unit_amount":5000,"currency":"usd","recurring":{"interval":"year"}}}]}}`, user.ID)
	payload, headers := signedStripeEvent(t, testStripeSecret, "customer.subscription.created", active)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	sub, err := p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsSupporter())
	assert.Equal(t, "$50.00/year", sub.FormatPrice())

	cancelling := `{"id":"sub_456","object":"subscription","customer":"cus_456","status":"active","cancel_at_period_end":true}`
	payload, headers = signedStripeEvent(t, testStripeSecret, "customer.subscription.updated", cancelling)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	sub, err = p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPlanSupporter, sub.PlanID)
	assert.Equal(t, model.SubscriptionStatusCancelled, sub.Status)

	deleted := `{"id":"sub_456","object":"subscription","status":"canceled"}`
	payload, headers = signedStripeEvent(t, testStripeSecret, "customer.subscription.deleted", deleted)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	sub, err = p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPlanFree, sub.PlanID)
	assert.Nil(t, sub.ProviderSubscriptionID)
}

func TestStripeSubscriptionMatchedByCustomer(t *testing.T) {
	p, user := newTestStripe(t)
	ctx := context.Background()

	object := fmt.Sprintf(`{"id":"cs_test_2","object":"checkout.session","customer":"cus_789","subscription":"sub_old","client_reference_id":%q,"metadata":{"user_id":%q}}`, user.ID, user.ID)
	payload, headers := signedStripeEvent(t, testStripeSecret, "checkout.session.completed", object)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	deleted := `{"id":"sub_old","object":"subscription","status":"canceled"}`
	payload, headers = signedStripeEvent(t, testStripeSecret, "customer.subscription.deleted", deleted)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	// Resubscribing from the portal carries no metadata, only the customer
	renewed := `{"id":"sub_new","object":"subscription","customer":"cus_789","status":"active","cancel_at_period_end":false}`
	payload, headers = signedStripeEvent(t, testStripeSecret, "customer.subscription.created", renewed)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))

	sub, err := p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.True(t, sub.IsSupporter())
	require.NotNil(t, sub.ProviderSubscriptionID)
	assert.Equal(t, "sub_new", *sub.ProviderSubscriptionID)

	unknown := `{"id":"sub_stray","object":"subscription","customer":"cus_nobody","status":"active"}`
	payload, headers = signedStripeEvent(t, testStripeSecret, "customer.subscription.updated", unknown)
	require.NoError(t, p.HandleWebhook(ctx, payload, headers))
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	p, user := newTestStripe(t)

	object := fmt.Sprintf(`{"id":"cs_test_2","object":"checkout.session","metadata":{"user_id":%q}}`, user.ID)
	payload, headers := signedStripeEvent(t, "whsec_someone_else", "checkout.session.completed", object)

	err := p.HandleWebhook(context.Background(), payload, headers)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = p.HandleWebhook(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	sub, err := p.subscriptionService.Subscription(user.ID)
	require.NoError(t, err)
	assert.False(t, sub.IsSupporter())
}

func TestStripeCheckoutRequiresPrice(t *testing.T) {
	p, user := newTestStripe(t)

	_, err := p.CreateCheckoutURL(context.Background(), user)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestMapStripeStatus(t *testing.T) {
	assert.Equal(t, model.SubscriptionStatusActive, mapStripeStatus("trialing"))
	assert.Equal(t, model.SubscriptionStatusCancelled, mapStripeStatus("canceled"))
	assert.Equal(t, model.SubscriptionIntervalYearly, mapStripeInterval("year"))
	assert.Equal(t, model.SubscriptionIntervalMonthly, mapStripeInterval("month"))
}
