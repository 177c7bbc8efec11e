package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/entity"
	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/middleware/auth"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

// AdminConsole is the read side of the admin console
type AdminConsole interface {
	Authenticate(email, name, picture string) (*usecase.AdminIdentity, error)
	Dashboard(ctx context.Context) (*entity.Dashboard, error)
	Users(ctx context.Context, search string, page entity.PaginationParams) (*entity.UserList, error)
	UserDetail(ctx context.Context, id uuid.UUID) (*entity.UserDetail, error)
	Subscriptions(ctx context.Context, status string, page entity.PaginationParams) (*entity.SubscriptionList, error)
	Refunds(ctx context.Context, page entity.PaginationParams) (*entity.RefundList, error)
}

type SubscriptionCanceler interface {
	Cancel(ctx context.Context, subscriptionID uuid.UUID, immediate bool) (*model.Subscription, error)
}

type AdminHandler struct {
	console  AdminConsole
	canceler SubscriptionCanceler
	refunds  Refunder
	logger   *zap.Logger
}

func NewAdminHandler(console AdminConsole, canceler SubscriptionCanceler, refunds Refunder, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		console:  console,
		canceler: canceler,
		refunds:  refunds,
		logger:   logger,
	}
}

type adminAuthRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type listQuery struct {
	Search string `query:"search"`
	Status string `query:"status"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

func (q listQuery) pagination() entity.PaginationParams {
	return entity.PaginationParams{Page: q.Page, Limit: q.Limit}
}

type cancelRequest struct {
	Immediate bool `json:"immediate"`
}

type adminRefundRequest struct {
	PaymentID string           `json:"paymentId" validate:"required"`
	Amount    *decimal.Decimal `json:"amount"`
	Reason    string           `json:"reason" validate:"max=500"`
}

type adminRefundResponse struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	StripeRefundID string          `json:"stripeRefundId"`
}

// Authenticate checks a console sign-in against the admin allowlist
func (h *AdminHandler) Authenticate(c echo.Context) error {
	var req adminAuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	identity, err := h.console.Authenticate(req.Email, req.Name, req.Picture)
	if err != nil {
		return pkgErrors.JSON(c, err, "Authentication failed")
	}
	return c.JSON(http.StatusOK, identity)
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.console.Dashboard(c.Request().Context())
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to load admin dashboard")
		return pkgErrors.JSON(c, err, "Failed to fetch dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q listQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	users, err := h.console.Users(c.Request().Context(), q.Search, q.pagination())
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to list users", zap.String("search", q.Search))
		return pkgErrors.JSON(c, err, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return pkgErrors.JSON(c, domainErrors.ErrUserNotFound, "")
	}

	detail, err := h.console.UserDetail(c.Request().Context(), id)
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to get user", zap.String("user_id", id.String()))
		return pkgErrors.JSON(c, err, "Failed to fetch user")
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *AdminHandler) ListSubscriptions(c echo.Context) error {
	var q listQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	subs, err := h.console.Subscriptions(c.Request().Context(), q.Status, q.pagination())
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to list subscriptions", zap.String("status", q.Status))
		return pkgErrors.JSON(c, err, "Failed to fetch subscriptions")
	}
	return c.JSON(http.StatusOK, subs)
}

// CancelSubscription cancels now when immediate is set, otherwise at period end
func (h *AdminHandler) CancelSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return pkgErrors.JSON(c, domainErrors.ErrSubscriptionNotFound, "")
	}

	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	if _, err := h.canceler.Cancel(c.Request().Context(), id, req.Immediate); err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to cancel subscription",
			zap.String("subscription_id", id.String()),
			zap.String("admin_email", auth.AdminEmailFromContext(c)))
		return pkgErrors.JSON(c, err, "Failed to cancel subscription")
	}

	h.logger.Info("Subscription canceled by admin",
		zap.String("subscription_id", id.String()),
		zap.String("admin_email", auth.AdminEmailFromContext(c)),
		zap.Bool("immediate", req.Immediate))

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"immediate": req.Immediate,
	})
}

func (h *AdminHandler) ListRefunds(c echo.Context) error {
	var q listQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query parameters"})
	}

	refunds, err := h.console.Refunds(c.Request().Context(), q.pagination())
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to list refunds")
		return pkgErrors.JSON(c, err, "Failed to fetch refunds")
	}
	return c.JSON(http.StatusOK, refunds)
}

// CreateRefund refunds any payment, optionally partially. Amount is in major units.
func (h *AdminHandler) CreateRefund(c echo.Context) error {
	var req adminRefundRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		if fieldFailed(err, "PaymentID") {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "paymentId is required"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Reason is too long"})
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return pkgErrors.JSON(c, domainErrors.ErrPaymentNotFound, "")
	}

	adminEmail := auth.AdminEmailFromContext(c)
	refund, err := h.refunds.Refund(c.Request().Context(), usecase.RefundRequest{
		PaymentID:  paymentID,
		AdminEmail: adminEmail,
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Admin refund failed",
			zap.String("payment_id", req.PaymentID),
			zap.String("admin_email", adminEmail))
		return pkgErrors.JSON(c, err, "Refund failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"refund": adminRefundResponse{
			ID:             refund.ID,
			Amount:         decimal.New(refund.Amount, -2),
			Status:         refund.Status,
			StripeRefundID: refund.StripeRefundID,
		},
	})
}
