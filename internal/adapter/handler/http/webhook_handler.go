package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

// Stripe caps event payloads well below this
const maxWebhookBody = 1 << 20

type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*usecase.Outcome, error)
}

type WebhookHandler struct {
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleStripe acknowledges an event only after it has been applied, so
// Stripe redelivers anything that failed.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}
	if len(body) > maxWebhookBody {
		h.logger.Warn("Rejected oversized webhook body",
			zap.Int64("content_length", c.Request().ContentLength),
			zap.Int("limit", maxWebhookBody))
		return pkgErrors.JSON(c, domainErrors.ErrPayloadTooLarge, "Payload too large")
	}

	outcome, err := h.processor.Process(c.Request().Context(), body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrUnauthenticatedEvent) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signature"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Webhook handler failed"})
	}

	h.logger.Debug("Webhook acknowledged",
		zap.String("event_id", outcome.EventID),
		zap.String("event_type", outcome.EventType),
		zap.Bool("applied", outcome.Applied))

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
