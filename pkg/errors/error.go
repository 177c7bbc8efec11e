package errors

import (
	"errors"
	"fmt"
)

// AppError는 기본 에러 구현체입니다
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

// Message는 내부 에러를 제외한 사용자용 메시지를 반환합니다
func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// CodeOf는 에러 체인에서 첫 번째 AppError의 코드를 반환합니다
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}
