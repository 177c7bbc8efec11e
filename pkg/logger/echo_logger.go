package logger

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

// sensitiveHeaders는 로그에 원문을 남기지 않을 헤더 목록입니다.
var sensitiveHeaders = map[string]bool{
	"Stripe-Signature": true,
	"X-Cron-Secret":    true,
}

// NewEchoRequestLogger는 Echo 서버를 위한 Request Logger를 생성합니다.
// zap을 사용하여 HTTP 요청과 응답을 로깅합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	config := middleware.RequestLoggerConfig{
		// 헬스체크와 메트릭 수집 요청은 로그에서 제외
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/api/health" || p == "/metrics"
		},
		HandleError: true,

		LogLatency:       true,
		LogProtocol:      true,
		LogRemoteIP:      true,
		LogMethod:        true,
		LogURI:           true,
		LogURIPath:       true,
		LogRoutePath:     true,
		LogRequestID:     true,
		LogUserAgent:     true,
		LogStatus:        true,
		LogError:         true,
		LogContentLength: true,
		LogResponseSize:  true,

		// 게이트웨이가 전달하는 신원 헤더와 서명 헤더
		LogHeaders:     []string{"Content-Type", "X-User-Id", "X-Admin-Email", "X-Cron-Secret", "Stripe-Signature"},
		LogQueryParams: []string{"page", "limit", "status", "search"},

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.protocol", v.Protocol),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.path", v.URIPath),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.String("request.content_length", v.ContentLength),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.response_size", v.ResponseSize),
			}

			if len(v.Headers) > 0 {
				headers := make(map[string]string, len(v.Headers))
				for k, values := range v.Headers {
					if len(values) == 0 {
						continue
					}
					if sensitiveHeaders[k] {
						headers[k] = "[MASKED]"
						continue
					}
					headers[k] = values[0]
				}
				fields = append(fields, zap.Any("request.headers", headers))
			}

			if len(v.QueryParams) > 0 {
				fields = append(fields, zap.Any("request.query_params", v.QueryParams))
			}

			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				logger.Error("Request failed", fields...)
				return nil
			}

			switch {
			case v.Status >= 500:
				logger.Error("Server error", fields...)
			case v.Status >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	}

	return middleware.RequestLoggerWithConfig(config)
}

// WithEchoLogger Echo에 대한 커스텀 에러 핸들러를 설정하고 기본 배너/로그 출력을 끕니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(io.Discard)

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		he := pkgErrors.ToHTTPError(err)
		code := he.Code
		message := http.StatusText(code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}

		// 에러 로그 기록
		logger.Error("HTTP error",
			zap.Error(err),
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.String("ip", c.RealIP()),
		)

		// 에러 응답
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, map[string]interface{}{
					"error": message,
				})
			}
			if err != nil {
				logger.Error("Failed to send error response", zap.Error(err))
			}
		}
	}
}
