package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// Options configures a Server. Zero values are usable.
type Options struct {
	// Logger is attached to the context of every call.
	Logger zerolog.Logger
	// Registerer receives the gRPC server metrics. Nil disables them.
	Registerer prometheus.Registerer
	// TLS enables transport security when set.
	TLS *tls.Config
}

// Server wraps a grpc.Server serving the measurement, health and reflection
// services.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
}

// NewServer builds the gRPC server around service.
func NewServer(service domain.MeasurementService, opts Options) (*Server, error) {
	interceptors := []grpc.UnaryServerInterceptor{loggingUnaryInterceptor(opts.Logger)}

	var metrics *grpc_prometheus.ServerMetrics
	if opts.Registerer != nil {
		metrics = grpc_prometheus.NewServerMetrics()
		if err := opts.Registerer.Register(metrics); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("failed to register grpc metrics: %w", err)
			}
			existing, ok := already.ExistingCollector.(*grpc_prometheus.ServerMetrics)
			if !ok {
				return nil, fmt.Errorf("failed to register grpc metrics: %w", err)
			}
			metrics = existing
		}
		interceptors = append(interceptors, metrics.UnaryServerInterceptor())
	}

	serverOpts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}
	if opts.TLS != nil {
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(opts.TLS)))
	}

	grpcServer := grpc.NewServer(serverOpts...)
	RegisterMeasurementServiceServer(grpcServer, NewMeasurementServiceHandler(service))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable gRPC reflection for grpcurl testing
	reflection.Register(grpcServer)

	if metrics != nil {
		metrics.InitializeMetrics(grpcServer)
	}

	return &Server{grpcServer: grpcServer, health: healthServer}, nil
}

// Serve accepts connections on lis until Stop or GracefulStop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown marks the server as not serving and drains in-flight calls. It
// forces a stop once ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return fmt.Errorf("graceful shutdown interrupted: %w", ctx.Err())
	}
}

func loggingUnaryInterceptor(base zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		logger := base.With().Str("grpc_method", info.FullMethod).Logger()
		ctx = logger.WithContext(ctx)

		resp, err := handler(ctx, req)

		event := logger.Info()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Dur("duration", time.Since(start)).Msg("gRPC call completed")

		return resp, err
	}
}
