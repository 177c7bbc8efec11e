package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPError는 에러를 Echo HTTP 에러로 변환합니다
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(ToHTTPStatus(appErr.Code()), appErr.Message())
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr
	}

	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// JSON은 에러를 {"error": "..."} 형태의 응답으로 기록합니다.
// AppError가 아닌 에러는 내부 정보를 노출하지 않도록 fallback 메시지를 사용합니다.
func JSON(c echo.Context, err error, fallback string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(ToHTTPStatus(appErr.Code()), echo.Map{"error": appErr.Message()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
