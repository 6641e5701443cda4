package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
	"github.com/google/uuid"
)

type SubscriptionService struct {
	repo repository.SubscriptionRepository
}

func NewSubscriptionService(repo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

func (s *SubscriptionService) CreateFreeSubscription(userID string) error {
	now := time.Now().UTC()
	subscription := &model.Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		PlanID:    model.SubscriptionPlanFree,
		Status:    model.SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.repo.Create(subscription)
	if err != nil {
		return fmt.Errorf("failed to create free subscription: %w", err)
	}

	return nil
}

// Subscription returns the user's subscription, creating the free row for
// accounts that predate it.
func (s *SubscriptionService) Subscription(userID string) (*model.Subscription, error) {
	sub, err := s.repo.ByUserID(userID)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		if err := s.CreateFreeSubscription(userID); err != nil {
			return nil, err
		}
		sub, err = s.repo.ByUserID(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) ByProviderSubscriptionID(providerSubID string) (*model.Subscription, error) {
	sub, err := s.repo.ByProviderSubscriptionID(providerSubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by provider ID: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) ByProviderCustomerID(customerID string) (*model.Subscription, error) {
	sub, err := s.repo.ByProviderCustomerID(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by customer ID: %w", err)
	}

	return sub, nil
}

func (s *SubscriptionService) UpdateSubscription(sub *model.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()

	err := s.repo.Update(sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	return nil
}

// Supporter describes a paid subscription reported by a payment provider.
type Supporter struct {
	Provider       string
	CustomerID     string
	SubscriptionID string
	PeriodEnd      *time.Time
	Amount         *int
	Currency       string
	Interval       string
}

// ActivateSupporter moves the user's subscription to the supporter plan.
func (s *SubscriptionService) ActivateSupporter(userID string, p Supporter) (*model.Subscription, error) {
	sub, err := s.Subscription(userID)
	if err != nil {
		return nil, err
	}

	sub.PlanID = model.SubscriptionPlanSupporter
	sub.Status = model.SubscriptionStatusActive
	sub.Provider = p.Provider
	if p.CustomerID != "" {
		sub.ProviderCustomerID = &p.CustomerID
	}
	if p.SubscriptionID != "" {
		sub.ProviderSubscriptionID = &p.SubscriptionID
	}
	if p.PeriodEnd != nil {
		sub.CurrentPeriodEnd = p.PeriodEnd
	}
	if p.Amount != nil {
		sub.Amount = p.Amount
	}
	if p.Currency != "" {
		sub.Currency = p.Currency
	}
	if p.Interval != "" {
		sub.Interval = &p.Interval
	}

	if err := s.UpdateSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel marks the subscription cancelled. The supporter plan stays until
// DowngradeToFree runs at period end.
func (s *SubscriptionService) Cancel(sub *model.Subscription) error {
	sub.Status = model.SubscriptionStatusCancelled
	return s.UpdateSubscription(sub)
}

func (s *SubscriptionService) DowngradeToFree(sub *model.Subscription) error {
	sub.PlanID = model.SubscriptionPlanFree
	sub.Status = model.SubscriptionStatusActive
	sub.ProviderSubscriptionID = nil
	sub.CurrentPeriodEnd = nil
	sub.Amount = nil
	sub.Currency = ""
	sub.Interval = nil

	return s.UpdateSubscription(sub)
}
