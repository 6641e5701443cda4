package repository

import (
	"database/sql"
	"errors"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionRepository stores the one billing row each user has.
type SubscriptionRepository interface {
	Create(sub *model.Subscription) error
	ByUserID(userID string) (*model.Subscription, error)
	ByProviderSubscriptionID(providerSubID string) (*model.Subscription, error)
	ByProviderCustomerID(providerCustomerID string) (*model.Subscription, error)
	Update(sub *model.Subscription) error
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *model.Subscription) error {
	query := `INSERT INTO subscriptions (id, user_id, plan_id, status, provider, provider_customer_id,
	              provider_subscription_id, current_period_end, amount, currency, billing_interval, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.Provider,
		sub.ProviderCustomerID, sub.ProviderSubscriptionID, sub.CurrentPeriodEnd,
		sub.Amount, sub.Currency, sub.Interval, sub.CreatedAt, sub.UpdatedAt,
	)
	return err
}

func (r *subscriptionRepository) ByUserID(userID string) (*model.Subscription, error) {
	return r.one(`SELECT * FROM subscriptions WHERE user_id = $1`, userID)
}

// ByProviderSubscriptionID resolves webhook payloads, which only carry the provider's ids.
func (r *subscriptionRepository) ByProviderSubscriptionID(providerSubID string) (*model.Subscription, error) {
	if providerSubID == "" {
		return nil, ErrSubscriptionNotFound
	}
	return r.one(`SELECT * FROM subscriptions WHERE provider_subscription_id = $1`, providerSubID)
}

func (r *subscriptionRepository) ByProviderCustomerID(providerCustomerID string) (*model.Subscription, error) {
	if providerCustomerID == "" {
		return nil, ErrSubscriptionNotFound
	}
	return r.one(`SELECT * FROM subscriptions WHERE provider_customer_id = $1 ORDER BY updated_at DESC LIMIT 1`, providerCustomerID)
}

func (r *subscriptionRepository) one(query string, args ...any) (*model.Subscription, error) {
	sub := &model.Subscription{}
	err := r.db.Get(sub, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionRepository) Update(sub *model.Subscription) error {
	query := `UPDATE subscriptions
	          SET plan_id = $1, status = $2, provider = $3, provider_customer_id = $4, provider_subscription_id = $5,
	              current_period_end = $6, amount = $7, currency = $8, billing_interval = $9, updated_at = $10
	          WHERE id = $11`

	result, err := r.db.Exec(query,
		sub.PlanID, sub.Status, sub.Provider, sub.ProviderCustomerID, sub.ProviderSubscriptionID,
		sub.CurrentPeriodEnd, sub.Amount, sub.Currency, sub.Interval, sub.UpdatedAt, sub.ID,
	)
	return checkAffected(result, err, ErrSubscriptionNotFound)
}
