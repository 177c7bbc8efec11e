package errors

import (
	"errors"

	"go.uber.org/zap"
)

// LogError는 에러를 구조화된 로그로 기록합니다
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	allFields := make([]zap.Field, 0, len(fields)+2)
	allFields = append(allFields, zap.Error(err))

	var appErr *AppError
	if errors.As(err, &appErr) {
		allFields = append(allFields, zap.String("error_code", appErr.Code()))
	}

	allFields = append(allFields, fields...)

	// 4xx 계열은 경고로만 남깁니다
	if ToHTTPStatus(CodeOf(err)) < 500 {
		logger.Warn(msg, allFields...)
		return
	}
	logger.Error(msg, allFields...)
}
