package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
)

type ReminderSender interface {
	SendRenewalReminders(ctx context.Context) (*usecase.ReminderResult, error)
}

type CronHandler struct {
	reminders ReminderSender
	logger    *zap.Logger
}

func NewCronHandler(reminders ReminderSender, logger *zap.Logger) *CronHandler {
	return &CronHandler{
		reminders: reminders,
		logger:    logger,
	}
}

// BillingReminders runs the renewal reminder job once
func (h *CronHandler) BillingReminders(c echo.Context) error {
	result, err := h.reminders.SendRenewalReminders(c.Request().Context())
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.Int("processed", result.Processed), zap.Int("sent", result.Sent))
		}
		h.logger.Error("Billing reminder job failed", fields...)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Cron job failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": result.Message()})
}
