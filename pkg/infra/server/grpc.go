package server

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcopts "github.com/kart-io/coursemind/pkg/options/server/grpc"
)

// GRPCServer exposes the standard gRPC health service and, optionally,
// server reflection.
type GRPCServer struct {
	opts     *grpcopts.Options
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	errCh    chan error
}

// NewGRPCServer creates a gRPC server. Every service starts NOT_SERVING
// until SetServing is called.
func NewGRPCServer(opts *grpcopts.Options, serverOpts ...grpc.ServerOption) *GRPCServer {
	if opts == nil {
		opts = grpcopts.NewOptions()
	}

	s := &GRPCServer{
		opts:   opts,
		server: grpc.NewServer(serverOpts...),
		health: health.NewServer(),
		errCh:  make(chan error, 1),
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.server, s.health)
	if opts.EnableReflection {
		reflection.Register(s.server)
	}
	return s
}

// Name returns the server name.
func (s *GRPCServer) Name() string { return "grpc" }

// Server returns the underlying grpc.Server.
func (s *GRPCServer) Server() *grpc.Server { return s.server }

// Addr returns the bound address, or the configured one before Start.
func (s *GRPCServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// SetServing flips the overall health status.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Err reports a failure of the serve loop after Start.
func (s *GRPCServer) Err() <-chan error { return s.errCh }

// Start binds the listener and serves in the background.
func (s *GRPCServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != grpc.ErrServerStopped {
			s.errCh <- err
		}
	}()
	return nil
}

// Stop stops the gRPC server gracefully, forcing it when ctx expires.
func (s *GRPCServer) Stop(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	case <-done:
		return nil
	}
}

var _ Runnable = (*GRPCServer)(nil)
