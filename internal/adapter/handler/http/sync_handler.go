package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/middleware/auth"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

type LearnerSync interface {
	Profile(ctx context.Context, email string) (json.RawMessage, error)
	SaveProfile(ctx context.Context, email string, document map[string]interface{}) error
	Results(ctx context.Context, email string) ([]*model.TestResult, error)
	SaveResult(ctx context.Context, email string, payload map[string]interface{}) (*usecase.SavedResult, error)
}

// SyncHandler serves the learner's profile and test history, keyed by x-user-email
type SyncHandler struct {
	sync   LearnerSync
	logger *zap.Logger
}

func NewSyncHandler(sync LearnerSync, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

func (h *SyncHandler) GetProfile(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email required"})
	}

	profile, err := h.sync.Profile(c.Request().Context(), caller.Email)
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to fetch profile", zap.String("email", caller.Email))
		return pkgErrors.JSON(c, err, "Failed to fetch profile")
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": profile})
}

func (h *SyncHandler) SaveProfile(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email required"})
	}

	document, err := decodeObject(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	if err := h.sync.SaveProfile(c.Request().Context(), caller.Email, document); err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to save profile", zap.String("email", caller.Email))
		return pkgErrors.JSON(c, err, "Failed to save profile")
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": true})
}

func (h *SyncHandler) ListResults(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email required"})
	}

	results, err := h.sync.Results(c.Request().Context(), caller.Email)
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to fetch results", zap.String("email", caller.Email))
		return pkgErrors.JSON(c, err, "Failed to fetch results")
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

func (h *SyncHandler) SaveResult(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email required"})
	}

	payload, err := decodeObject(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}

	saved, err := h.sync.SaveResult(c.Request().Context(), caller.Email, payload)
	if err != nil {
		pkgErrors.LogError(h.logger, err, "Failed to save result", zap.String("email", caller.Email))
		return pkgErrors.JSON(c, err, "Failed to save result")
	}
	return c.JSON(http.StatusOK, saved)
}

// decodeObject reads a JSON object body; a null body is an empty object
func decodeObject(c echo.Context) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := json.NewDecoder(c.Request().Body).Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]interface{}{}
	}
	return obj, nil
}
