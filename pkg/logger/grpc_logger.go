package logger

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewGrpcUnaryServerInterceptor는 단일 요청/응답 gRPC 메서드에 대한 로깅 인터셉터를 생성합니다.
func NewGrpcUnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)
		logGrpcCall(logger, "gRPC 요청", info.FullMethod, err, time.Since(startTime))
		return resp, err
	}
}

// NewGrpcStreamServerInterceptor는 스트리밍 gRPC 메서드(예: Health/Watch)에 대한 로깅 인터셉터를 생성합니다.
func NewGrpcStreamServerInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		startTime := time.Now()
		err := handler(srv, ss)
		logGrpcCall(logger, "gRPC 스트림", info.FullMethod, err, time.Since(startTime))
		return err
	}
}

func logGrpcCall(logger *zap.Logger, kind, fullMethod string, err error, duration time.Duration) {
	statusCode := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			statusCode = st.Code()
		} else {
			statusCode = codes.Unknown
		}
	}

	fields := []zap.Field{
		zap.String("grpc.service", path.Dir(fullMethod)[1:]),
		zap.String("grpc.method", path.Base(fullMethod)),
		zap.String("grpc.code", statusCode.String()),
		zap.Duration("grpc.duration", duration),
	}

	switch statusCode {
	case codes.OK:
		logger.Debug(kind+" 완료", fields...)
	case codes.Canceled, codes.DeadlineExceeded, codes.ResourceExhausted,
		codes.Aborted, codes.Unavailable, codes.DataLoss:
		logger.Warn(kind+" 실패", append(fields, zap.Error(err))...)
	default:
		logger.Error(kind+" 오류", append(fields, zap.Error(err))...)
	}
}
