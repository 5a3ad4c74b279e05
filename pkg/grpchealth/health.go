// Package grpchealth exposes the standard gRPC health service, serving once
// the service lifecycle has started.
package grpchealth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Server struct {
	service string
	health  *health.Server
}

func NewServer(service string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{service: service, health: hs}
}

// RegisterGRPCService registers the health service with the gRPC server (aqm.GRPCServiceRegistrar interface)
func (s *Server) RegisterGRPCService(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s.health)
}

func (s *Server) Start(context.Context) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.service, healthpb.HealthCheckResponse_SERVING)
	return nil
}

func (s *Server) Stop(context.Context) error {
	s.health.Shutdown()
	return nil
}

// Check reports the current status for service.
func (s *Server) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
