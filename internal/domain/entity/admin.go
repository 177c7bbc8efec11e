package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// DashboardStats totals are in major currency units
type DashboardStats struct {
	TotalUsers          int64           `json:"totalUsers"`
	ActiveSubscriptions int64           `json:"activeSubscriptions"`
	TotalPayments       int64           `json:"totalPayments"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TotalRefunds        int64           `json:"totalRefunds"`
	TotalRefundAmount   decimal.Decimal `json:"totalRefundAmount"`
}

type Dashboard struct {
	Stats          DashboardStats   `json:"stats"`
	RecentUsers    []*model.User    `json:"recentUsers"`
	RecentPayments []*model.Payment `json:"recentPayments"`
}

// UserSummary is a user row in the admin listing
type UserSummary struct {
	*model.User
	HasActiveSubscription bool       `json:"hasActiveSubscription"`
	SubscriptionEnd       *time.Time `json:"subscriptionEnd"`
}

type UserList struct {
	Users []*UserSummary `json:"users"`
	PaginationMeta
}

// PaymentWithRefunds is a payment together with the refunds issued against it
type PaymentWithRefunds struct {
	*model.Payment
	Refunds []*model.Refund `json:"refunds"`
}

type UserDetail struct {
	*model.User
	Subscriptions []*model.Subscription `json:"subscriptions"`
	Payments      []*PaymentWithRefunds `json:"payments"`
	TestResults   []*model.TestResult   `json:"testResults"`
	Profile       *model.UserProfile    `json:"userProfile"`
}

type SubscriptionList struct {
	Subscriptions []*model.Subscription `json:"subscriptions"`
	PaginationMeta
}

type RefundList struct {
	Refunds []*model.Refund `json:"refunds"`
	PaginationMeta
}
