package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/entity"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/middleware/auth"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

type SubscriptionStatusReader interface {
	Status(ctx context.Context, userID string) (*entity.SubscriptionStatus, error)
}

type SubscriptionHandler struct {
	subscriptions SubscriptionStatusReader
	logger        *zap.Logger
}

func NewSubscriptionHandler(subscriptions SubscriptionStatusReader, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// GetStatus reports whether the calling user has premium access
func (h *SubscriptionHandler) GetStatus(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "userId required"})
	}

	status, err := h.subscriptions.Status(c.Request().Context(), caller.UserID)
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to get subscription status",
			zap.String("user_id", caller.UserID))
		return pkgErrors.JSON(c, err, "Failed to fetch subscription status")
	}

	return c.JSON(http.StatusOK, status)
}
