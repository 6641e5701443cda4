package repository

import (
	"testing"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepository(t *testing.T) {
	database := newTestDB(t)
	repo := NewSubscriptionRepository(database)
	user := createUser(t, database, "ada")

	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		PlanID:    model.SubscriptionPlanFree,
		Status:    model.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(sub))

	providerSubID := "I-BW452GLLEP1G"
	interval := model.SubscriptionIntervalMonthly
	sub.PlanID = model.SubscriptionPlanSupporter
	sub.Provider = model.ProviderPayPal
	sub.ProviderSubscriptionID = &providerSubID
	sub.Interval = &interval
	sub.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(sub))

	found, err := repo.ByProviderSubscriptionID(providerSubID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)
	assert.True(t, found.IsSupporter())
	require.NotNil(t, found.Interval)
	assert.Equal(t, model.SubscriptionIntervalMonthly, *found.Interval)

	_, err = repo.ByUserID("missing")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}
