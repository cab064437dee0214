package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the service name reported next to the overall ("") status.
const ServiceName = "shop"

// Checker checks a dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// MongoChecker pings the primary of a MongoDB deployment.
type MongoChecker struct {
	Client *mongo.Client
}

func (c MongoChecker) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}

// AlwaysHealthy is used when there is no external store to check.
type AlwaysHealthy struct{}

func (AlwaysHealthy) Ping(context.Context) error { return nil }

// Server exposes grpc.health.v1 with a status derived from the checker.
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	checker    Checker
	interval   time.Duration
	log        *slog.Logger
}

func NewServer(checker Checker, log *slog.Logger) *Server {
	grpcServer := grpc.NewServer()
	h := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, h)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     h,
		checker:    checker,
		interval:   10 * time.Second,
		log:        log,
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Check runs the checker once and publishes the result.
func (s *Server) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.checker.Ping(ctx); err != nil {
		s.log.WarnContext(ctx, "health check failed", "error", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Run checks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Check(ctx)
	for {
		select {
		case <-ticker.C:
			s.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop marks every service as not serving and stops the server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
