package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

type CheckoutStarter interface {
	CreateSession(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutStarter
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutStarter, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

type checkoutRequest struct {
	Email  string `json:"email" validate:"omitempty,email,max=255"`
	UserID string `json:"userId"`
	Name   string `json:"name" validate:"max=255"`
}

// CreateSession starts a hosted subscription checkout
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		if fieldFailed(err, "Email") {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid email"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is too long"})
	}

	result, err := h.checkout.CreateSession(c.Request().Context(), usecase.CheckoutRequest{
		Email:  req.Email,
		UserID: req.UserID,
		Name:   req.Name,
	})
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to create checkout session",
			zap.String("email", req.Email),
			zap.String("user_id", req.UserID))
		return pkgErrors.JSON(c, err, "Failed to create checkout session")
	}

	return c.JSON(http.StatusOK, result)
}
