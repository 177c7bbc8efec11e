package errors

import (
	"net/http"
)

var statusMapping = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrUpstream:        http.StatusBadGateway,
}

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다. 알 수 없는 코드는 500입니다.
func ToHTTPStatus(code string) int {
	if status, ok := statusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
