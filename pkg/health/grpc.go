package health

import (
	"net"
	"time"

	"university-chat/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the checker's overall status over the standard
// grpc_health_v1 protocol for load balancers and orchestrators
type GRPCServer struct {
	server  *grpc.Server
	health  *grpchealth.Server
	checker *Checker
	log     *logger.Logger
}

// NewGRPCServer builds a gRPC health server bound to the checker
func NewGRPCServer(checker *Checker, log *logger.Logger) *GRPCServer {
	s := grpc.NewServer()
	h := grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)

	return &GRPCServer{
		server:  s,
		health:  h,
		checker: checker,
		log:     log.WithComponent("grpc-health"),
	}
}

// Serve listens on addr and mirrors the checker state into the gRPC serving
// status every few seconds. Blocks; run in a goroutine.
func (g *GRPCServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if !g.checker.IsSystemHealthy() {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			g.health.SetServingStatus("", status)
		}
	}()

	g.log.Info("grpc health server listening", "addr", addr)
	return g.server.Serve(lis)
}

// Stop shuts the gRPC server down gracefully
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
