package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/entity"
	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

type allowlist []string

func (a allowlist) IsAdmin(email string) bool {
	for _, e := range a {
		if e == email {
			return true
		}
	}
	return false
}

func newAdminService(store *memStore) *usecase.AdminService {
	return usecase.NewAdminService(allowlist{"admin@selt.app"}, store.repos(), zap.NewNop())
}

func TestAdminService_Authenticate(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		expectedErr error
		code        string
	}{
		{name: "allowed", email: "admin@selt.app"},
		{name: "surrounding whitespace", email: "  admin@selt.app "},
		{name: "empty email", email: " ", code: pkgErrors.ErrInvalidArgument},
		{name: "not allowlisted", email: "learner@selt.app", expectedErr: domainErrors.ErrAdminNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAdminService(newMemStore())

			identity, err := svc.Authenticate(tt.email, "Admin", "https://example.com/a.png")
			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, identity)
			case tt.code != "":
				require.Error(t, err)
				assert.Equal(t, tt.code, pkgErrors.CodeOf(err))
				assert.Equal(t, "Email required", err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, &usecase.AdminIdentity{
					Authenticated: true,
					Email:         "admin@selt.app",
					Name:          "Admin",
					Picture:       "https://example.com/a.png",
				}, identity)
			}
		})
	}
}

func TestAdminService_Dashboard(t *testing.T) {
	store := newMemStore()
	svc := newAdminService(store)

	end := time.Now().Add(20 * 24 * time.Hour)
	a := store.addUser("a@selt.app", "cus_a")
	b := store.addUser("b@selt.app", "cus_b")
	store.addSubscription(a.ID, "sub_a", model.SubscriptionStatusActive, end)
	store.addSubscription(b.ID, "sub_b", model.SubscriptionStatusCanceled, end)

	paid := store.addPayment(a.ID, "in_1", "pi_1", 1299, model.PaymentStatusPaid)
	store.addPayment(a.ID, "in_2", "pi_2", 1299, model.PaymentStatusPaid)
	store.addPayment(b.ID, "in_3", "", 1299, model.PaymentStatusFailed)
	_, err := store.repos().Refund.Record(context.Background(), &model.Refund{
		PaymentID: paid.ID, StripeRefundID: "re_1", Amount: 500, Status: "succeeded",
	})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), dashboard.Stats.TotalUsers)
	assert.Equal(t, int64(1), dashboard.Stats.ActiveSubscriptions)
	assert.Equal(t, int64(2), dashboard.Stats.TotalPayments)
	assert.True(t, decimal.RequireFromString("25.98").Equal(dashboard.Stats.TotalRevenue))
	assert.Equal(t, int64(1), dashboard.Stats.TotalRefunds)
	assert.True(t, decimal.RequireFromString("5").Equal(dashboard.Stats.TotalRefundAmount))
	assert.Len(t, dashboard.RecentUsers, 2)
	assert.Len(t, dashboard.RecentPayments, 3)
}

func TestAdminService_Users(t *testing.T) {
	store := newMemStore()
	svc := newAdminService(store)

	end := time.Now().Add(5 * 24 * time.Hour).UTC()
	subscriber := store.addUser("anna@selt.app", "cus_a")
	store.addSubscription(subscriber.ID, "sub_a", model.SubscriptionStatusActive, end)
	store.addUser("ben@selt.app", "")
	store.addUser("carl@example.com", "")

	list, err := svc.Users(context.Background(), " selt.app ", entity.PaginationParams{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, entity.DefaultPage, list.Page)
	assert.Equal(t, entity.DefaultPageSize, list.Limit)
	assert.Equal(t, 1, list.TotalPages)
	require.Len(t, list.Users, 2)

	assert.Equal(t, "anna@selt.app", list.Users[0].Email)
	assert.True(t, list.Users[0].HasActiveSubscription)
	require.NotNil(t, list.Users[0].SubscriptionEnd)
	assert.True(t, end.Equal(*list.Users[0].SubscriptionEnd))

	assert.Equal(t, "ben@selt.app", list.Users[1].Email)
	assert.False(t, list.Users[1].HasActiveSubscription)
	assert.Nil(t, list.Users[1].SubscriptionEnd)
}

func TestAdminService_UserDetail(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := newAdminService(newMemStore())

		_, err := svc.UserDetail(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)
	})

	t.Run("groups refunds by payment", func(t *testing.T) {
		store := newMemStore()
		svc := newAdminService(store)

		u := store.addUser("anna@selt.app", "cus_a")
		store.addSubscription(u.ID, "sub_a", model.SubscriptionStatusActive, time.Now().Add(24*time.Hour))
		refunded := store.addPayment(u.ID, "in_1", "pi_1", 1299, model.PaymentStatusPaid)
		store.addPayment(u.ID, "in_2", "pi_2", 1299, model.PaymentStatusPaid)
		_, err := store.repos().Refund.Record(context.Background(), &model.Refund{
			PaymentID: refunded.ID, StripeRefundID: "re_1", Amount: 1299, Status: "succeeded",
		})
		require.NoError(t, err)

		detail, err := svc.UserDetail(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, detail.ID)
		assert.Len(t, detail.Subscriptions, 1)
		require.Len(t, detail.Payments, 2)

		for _, p := range detail.Payments {
			require.NotNil(t, p.Refunds)
			if p.ID == refunded.ID {
				assert.Len(t, p.Refunds, 1)
			} else {
				assert.Empty(t, p.Refunds)
			}
		}
	})

	t.Run("user without history gets empty lists", func(t *testing.T) {
		store := newMemStore()
		svc := newAdminService(store)
		u := store.addUser("new@selt.app", "")

		detail, err := svc.UserDetail(context.Background(), u.ID)
		require.NoError(t, err)
		assert.NotNil(t, detail.Subscriptions)
		assert.NotNil(t, detail.Payments)
		assert.Empty(t, detail.Payments)
		assert.NotNil(t, detail.TestResults)
		assert.Nil(t, detail.Profile)
	})

	t.Run("includes synced profile and latest results", func(t *testing.T) {
		store := newMemStore()
		svc := newAdminService(store)
		sync := usecase.NewSyncService(store.repos(), zap.NewNop())
		u := store.addUser("learner@selt.app", "")
		ctx := context.Background()

		require.NoError(t, sync.SaveProfile(ctx, u.Email, map[string]interface{}{"name": "Learner"}))
		for i := 0; i < 12; i++ {
			_, err := sync.SaveResult(ctx, u.Email, map[string]interface{}{"score": float64(i)})
			require.NoError(t, err)
		}

		detail, err := svc.UserDetail(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.Profile)
		assert.JSONEq(t, `{"name":"Learner"}`, string(detail.Profile.Profile))
		assert.Len(t, detail.TestResults, 10)
	})
}

func TestAdminService_Lists(t *testing.T) {
	store := newMemStore()
	svc := newAdminService(store)

	end := time.Now().Add(24 * time.Hour)
	a := store.addUser("a@selt.app", "cus_a")
	store.addSubscription(a.ID, "sub_1", model.SubscriptionStatusActive, end)
	store.addSubscription(a.ID, "sub_2", model.SubscriptionStatusCanceled, end)

	active, err := svc.Subscriptions(context.Background(), "active", entity.PaginationParams{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(1), active.Total)
	assert.Equal(t, entity.MaxPageSize, active.Limit)
	require.Len(t, active.Subscriptions, 1)
	assert.Equal(t, "sub_1", active.Subscriptions[0].StripeSubscriptionID)

	refunds, err := svc.Refunds(context.Background(), entity.PaginationParams{})
	require.NoError(t, err)
	assert.NotNil(t, refunds.Refunds)
	assert.Zero(t, refunds.Total)
	assert.Zero(t, refunds.TotalPages)
}
