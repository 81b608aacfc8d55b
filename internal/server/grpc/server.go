// Package grpc serves the standard gRPC health protocol next to the HTTP API.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthChecker reports database reachability.
type HealthChecker interface {
	Check(ctx context.Context) (*services.HealthReport, error)
}

type GRPCServer struct {
	healthpb.UnimplementedHealthServer
	address string
	health  HealthChecker
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, hc HealthChecker) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		health:  hc,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s)
	reflection.Register(srv)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
