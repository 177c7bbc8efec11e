package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/middleware/auth"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

type Refunder interface {
	Refund(ctx context.Context, req usecase.RefundRequest) (*model.Refund, error)
}

type RefundHandler struct {
	refunds Refunder
	logger  *zap.Logger
}

func NewRefundHandler(refunds Refunder, logger *zap.Logger) *RefundHandler {
	return &RefundHandler{
		refunds: refunds,
		logger:  logger,
	}
}

type refundRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

// CreateRefund refunds one of the caller's own payments in full
func (h *RefundHandler) CreateRefund(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req refundRequest
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

	refund, err := h.refunds.Refund(c.Request().Context(), usecase.RefundRequest{
		PaymentID: paymentID,
		UserID:    caller.UserID,
		Reason:    req.Reason,
	})
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Refund failed",
			zap.String("payment_id", req.PaymentID),
			zap.String("user_id", caller.UserID))
		return pkgErrors.JSON(c, err, "Refund failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Refund processed",
		"refund":  refund,
	})
}
