package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/Dongwon38/print-agent/internal/worker/poller"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName is the health service that mirrors the poller state.
const ServiceName = "print-agent.Poller"

// GRPCTransport exposes the standard gRPC health service. The process is
// always SERVING; ServiceName is SERVING only while the poller runs.
type GRPCTransport struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
}

// option is a function that configures the GRPCTransport.
type option func(*GRPCTransport)

// NewGRPCTransport creates a new GRPCTransport listening on server.grpc.port.
func NewGRPCTransport(opts ...option) *GRPCTransport {
	g := &GRPCTransport{
		server: newGRPCServer(),
		health: health.NewServer(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.listener == nil {
		port := viper.GetString("server.grpc.port")
		if port == "" {
			port = "9090"
		}

		listener, err := net.Listen("tcp", ":"+port)
		if err != nil {
			panic(err)
		}
		g.listener = listener
	}

	g.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	g.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return g
}

// WithListener serves on l instead of server.grpc.port.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithListener(l net.Listener) option {
	return func(g *GRPCTransport) {
		g.listener = l
	}
}

// Run starts the gRPC server.
func (g *GRPCTransport) Run() error {
	g.RegisterServices()
	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown gracefully shuts down the gRPC server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
}

// SetPollerState publishes the poller state as the health of ServiceName.
func (g *GRPCTransport) SetPollerState(s poller.State) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s == poller.StateRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}

	g.health.SetServingStatus(ServiceName, status)
}

// newGRPCServer creates a new gRPC server with default settings.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_idle"),
		) * time.Minute,
		MaxConnectionAge: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age"),
		) * time.Minute,
		MaxConnectionAgeGrace: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age_grace"),
		) * time.Second,
		Time: time.Duration(
			viper.GetInt("server.grpc.keepalive.time"),
		) * time.Second,
		Timeout: time.Duration(
			viper.GetInt("server.grpc.keepalive.timeout"),
		) * time.Second,
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime: time.Duration(
			viper.GetInt("server.grpc.keepalive.min_time"),
		) * time.Second,
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
	}

	return grpc.NewServer(opts...)
}
