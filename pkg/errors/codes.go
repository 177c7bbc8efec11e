package errors

// 공통 에러 코드 정의
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrPayloadTooLarge = "PAYLOAD_TOO_LARGE"

	// 외부 결제 프로세서 호출 실패
	ErrUpstream = "UPSTREAM"
)
