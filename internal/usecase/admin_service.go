package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/entity"
	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

const (
	dashboardRecentLimit  = 5
	userDetailPayments    = 20
	userDetailTestResults = 10
)

// AdminAuthorizer decides whether an email belongs to an administrator
type AdminAuthorizer interface {
	IsAdmin(email string) bool
}

// AdminIdentity is returned by a successful admin sign-in
type AdminIdentity struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// AdminService serves the read-mostly admin console queries
type AdminService struct {
	authorizer    AdminAuthorizer
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	payments      repository.PaymentRepository
	refunds       repository.RefundRepository
	profiles      repository.UserProfileRepository
	testResults   repository.TestResultRepository
	logger        *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(authorizer AdminAuthorizer, repos *repository.Repositories, logger *zap.Logger) *AdminService {
	return &AdminService{
		authorizer:    authorizer,
		users:         repos.User,
		subscriptions: repos.Subscription,
		payments:      repos.Payment,
		refunds:       repos.Refund,
		profiles:      repos.Profile,
		testResults:   repos.TestResult,
		logger:        logger,
	}
}

// Authenticate checks a sign-in from the admin console against the allowlist
func (s *AdminService) Authenticate(email, name, picture string) (*AdminIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domainErrors.InvalidArgument("Email required")
	}
	if !s.authorizer.IsAdmin(email) {
		s.logger.Warn("Admin sign-in rejected", zap.String("email", email))
		return nil, domainErrors.ErrAdminNotAllowed
	}
	return &AdminIdentity{
		Authenticated: true,
		Email:         email,
		Name:          name,
		Picture:       picture,
	}, nil
}

// Dashboard returns headline counts, revenue in major units and the latest activity
func (s *AdminService) Dashboard(ctx context.Context) (*entity.Dashboard, error) {
	var (
		stats entity.DashboardStats
		err   error
	)

	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveSubscriptions, err = s.subscriptions.CountByStatus(ctx, model.SubscriptionStatusActive); err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	if stats.TotalPayments, err = s.payments.CountByStatus(ctx, model.PaymentStatusPaid); err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	revenue, err := s.payments.SumAmountByStatus(ctx, model.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if stats.TotalRefunds, err = s.refunds.Count(ctx); err != nil {
		return nil, fmt.Errorf("count refunds: %w", err)
	}
	refunded, err := s.refunds.SumAmount(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum refunds: %w", err)
	}
	stats.TotalRevenue = toMajor(revenue)
	stats.TotalRefundAmount = toMajor(refunded)

	recentUsers, err := s.users.ListRecent(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}
	recentPayments, err := s.payments.ListRecent(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return &entity.Dashboard{
		Stats:          stats,
		RecentUsers:    recentUsers,
		RecentPayments: recentPayments,
	}, nil
}

// Users lists users matching search with their current active subscription end
func (s *AdminService) Users(ctx context.Context, search string, page entity.PaginationParams) (*entity.UserList, error) {
	page.Validate()

	users, total, err := s.users.Search(ctx, strings.TrimSpace(search), page.CalculateOffset(), page.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	active, err := s.subscriptions.ListActiveByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// newest active subscription first
	endByUser := make(map[uuid.UUID]time.Time, len(active))
	for _, sub := range active {
		if _, seen := endByUser[sub.UserID]; !seen {
			endByUser[sub.UserID] = sub.CurrentPeriodEnd
		}
	}

	summaries := make([]*entity.UserSummary, 0, len(users))
	for _, u := range users {
		summary := &entity.UserSummary{User: u}
		if end, ok := endByUser[u.ID]; ok {
			end := end
			summary.HasActiveSubscription = true
			summary.SubscriptionEnd = &end
		}
		summaries = append(summaries, summary)
	}

	return &entity.UserList{
		Users:          summaries,
		PaginationMeta: entity.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

// UserDetail returns a user with all subscriptions and the latest payments with their refunds
func (s *AdminService) UserDetail(ctx context.Context, id uuid.UUID) (*entity.UserDetail, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domainErrors.ErrUserNotFound
	}

	subs, err := s.subscriptions.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByUser(ctx, id, userDetailPayments)
	if err != nil {
		return nil, err
	}

	paymentIDs := make([]uuid.UUID, 0, len(payments))
	for _, p := range payments {
		paymentIDs = append(paymentIDs, p.ID)
	}
	refunds, err := s.refunds.ListByPaymentIDs(ctx, paymentIDs)
	if err != nil {
		return nil, err
	}
	refundsByPayment := make(map[uuid.UUID][]*model.Refund, len(refunds))
	for _, r := range refunds {
		refundsByPayment[r.PaymentID] = append(refundsByPayment[r.PaymentID], r)
	}

	withRefunds := make([]*entity.PaymentWithRefunds, 0, len(payments))
	for _, p := range payments {
		rs := refundsByPayment[p.ID]
		if rs == nil {
			rs = []*model.Refund{}
		}
		withRefunds = append(withRefunds, &entity.PaymentWithRefunds{Payment: p, Refunds: rs})
	}

	results, err := s.testResults.ListByEmail(ctx, user.Email, userDetailTestResults)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	if subs == nil {
		subs = []*model.Subscription{}
	}
	if results == nil {
		results = []*model.TestResult{}
	}
	return &entity.UserDetail{
		User:          user,
		Subscriptions: subs,
		Payments:      withRefunds,
		TestResults:   results,
		Profile:       profile,
	}, nil
}

// Subscriptions lists subscriptions with their users, optionally filtered by status
func (s *AdminService) Subscriptions(ctx context.Context, status string, page entity.PaginationParams) (*entity.SubscriptionList, error) {
	page.Validate()

	subs, total, err := s.subscriptions.List(ctx, status, page.CalculateOffset(), page.Limit)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}
	return &entity.SubscriptionList{
		Subscriptions:  subs,
		PaginationMeta: entity.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

// Refunds lists refunds newest first with their payment and user
func (s *AdminService) Refunds(ctx context.Context, page entity.PaginationParams) (*entity.RefundList, error) {
	page.Validate()

	refunds, total, err := s.refunds.List(ctx, page.CalculateOffset(), page.Limit)
	if err != nil {
		return nil, err
	}
	if refunds == nil {
		refunds = []*model.Refund{}
	}
	return &entity.RefundList{
		Refunds:        refunds,
		PaginationMeta: entity.NewPaginationMeta(page.Page, page.Limit, total),
	}, nil
}

func toMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
