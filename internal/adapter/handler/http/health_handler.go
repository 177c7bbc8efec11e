package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// PingFunc checks that the database answers
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping   PingFunc
	logger *zap.Logger
}

func NewHealthHandler(ping PingFunc, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		ping:   ping,
		logger: logger,
	}
}

func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":   "error",
			"database": "disconnected",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"database": "connected",
	})
}
