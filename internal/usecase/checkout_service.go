package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

const checkoutUserRequired = "User not found. Please provide email or userId."

// CheckoutRequest identifies the buyer by email or by local user id
type CheckoutRequest struct {
	Email  string
	UserID string
	Name   string
}

// CheckoutResult is the hosted checkout the client redirects to
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CheckoutConfig holds the checkout settings
type CheckoutConfig struct {
	PriceID   string
	ClientURL string
}

// CheckoutService starts subscription checkouts
type CheckoutService struct {
	processor provider.PaymentProcessor
	users     repository.UserRepository
	config    CheckoutConfig
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(processor provider.PaymentProcessor, users repository.UserRepository, cfg CheckoutConfig, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		processor: processor,
		users:     users,
		config:    cfg,
		logger:    logger,
	}
}

// CreateSession resolves or creates the buyer, ensures a Stripe customer
// exists for them and opens a checkout session for the configured price.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	user, err := s.resolveBuyer(ctx, req)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(s.config.ClientURL, "/")
	session, err := s.processor.CreateCheckoutSession(ctx, &provider.CheckoutSessionRequest{
		CustomerID: customerID,
		PriceID:    s.config.PriceID,
		SuccessURL: base + "/?payment=success",
		CancelURL:  base + "/?payment=cancel",
		UserID:     user.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Checkout session created",
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", session.ID))

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

func (s *CheckoutService) resolveBuyer(ctx context.Context, req CheckoutRequest) (*model.User, error) {
	email := strings.TrimSpace(req.Email)
	if email != "" {
		return s.findOrCreateByEmail(ctx, email, strings.TrimSpace(req.Name))
	}

	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, domainErrors.InvalidArgument(checkoutUserRequired)
		}
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user != nil {
			return user, nil
		}
	}

	return nil, domainErrors.InvalidArgument(checkoutUserRequired)
}

func (s *CheckoutService) findOrCreateByEmail(ctx context.Context, email, name string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user = &model.User{Email: email, Name: name, Role: model.UserRoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent checkout may have created the same email
		existing, lookupErr := s.users.GetByEmail(ctx, email)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info("User created at checkout",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email))
	return user, nil
}

func (s *CheckoutService) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	customer, err := s.processor.CreateCustomer(ctx, &provider.CreateCustomerRequest{
		Email:  user.Email,
		Name:   user.Name,
		UserID: user.ID.String(),
	})
	if err != nil {
		return "", err
	}

	if err := s.users.SetStripeCustomerID(ctx, user.ID, customer.ID); err != nil {
		return "", err
	}
	user.StripeCustomerID = &customer.ID
	return customer.ID, nil
}
