package entity

import "time"

// StatusNone is reported when a user has no entitling subscription
const StatusNone = "none"

// SubscriptionStatus is the projection used to gate premium features
type SubscriptionStatus struct {
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	Status                string     `json:"status"`
	CurrentPeriodEnd      *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd     bool       `json:"cancelAtPeriodEnd"`
}

// NoSubscription returns the canonical result for users without an active
// or trialing subscription.
func NoSubscription() *SubscriptionStatus {
	return &SubscriptionStatus{
		HasActiveSubscription: false,
		Status:                StatusNone,
		CurrentPeriodEnd:      nil,
		CancelAtPeriodEnd:     false,
	}
}
