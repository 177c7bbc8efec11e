package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/logger"
)

// ServiceName is the health check service name reported for the billing backend
const ServiceName = "selt.billing"

// Server exposes the standard gRPC health service so orchestrators can probe
// the billing backend without going through HTTP.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
		health: health.NewServer(),
	}

	s.server = grpc.NewServer(
		grpc.UnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)),
		grpc.StreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	s.SetServing(true)

	return s
}

// SetServing flips the reported status of both the overall server and the billing service
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Start listens on the configured address; a zero port disables the server
func (s *Server) Start() error {
	if s.config.Server.GRPC.Port == 0 {
		s.logger.Info("gRPC server disabled")
		return nil
	}

	addr := s.config.Server.GRPC.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(listener)
}

// Serve runs the server on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))
	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Forcing gRPC server stop")
		s.server.Stop()
		return ctx.Err()
	case <-stopped:
		return nil
	}
}
