// Package health exposes the standard gRPC health checking service.
package health

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes ask about in addition to the
// server-wide empty name.
const ServiceName = "notes.v1.NotesAPI"

type Service struct {
	srv *health.Server
}

// New starts in NOT_SERVING until SetServing is called.
func New() *Service {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Service{srv: srv}
}

func (s *Service) RegisterService(r grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(r, s.srv)
}

func (s *Service) SetServing() {
	s.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown flips every status to NOT_SERVING and ignores later updates.
func (s *Service) Shutdown() {
	s.srv.Shutdown()
}
