package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	grpcAdapter "github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/grpc"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/memory"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/postgres"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/rest"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/sqlite"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/metrics"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/service"
	"github.com/AmirhosseinHanifehzadeh/Polaris/pkg/tlsconfig"
)

// repository is a measurement store that holds resources until closed.
type repository interface {
	domain.MeasurementRepository
	io.Closer
}

func main() {
	// Read configuration from environment
	config := loadConfig()

	setupLogger(config)
	log.Info().Msg("starting polaris measurement service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Str("repo_type", config.RepoType).Msg("failed to initialize repository")
	}
	defer repo.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	svc := service.NewMeasurementService(repo,
		service.WithMetrics(m),
		service.WithMaxListLimit(config.MaxListLimit),
		service.WithMaxBulkSize(config.MaxBulkSize),
	)

	// Configure TLS if certificates are provided
	var tlsCfg *tls.Config
	if config.TLSCert != "" {
		tlsCfg, err = tlsconfig.LoadServerTLS(config.TLSCert, config.TLSKey, config.TLSCA)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load TLS config")
		}
		log.Info().Bool("client_auth", config.TLSCA != "").Msg("TLS enabled")
	} else {
		log.Warn().Msg("TLS_CERT not set, starting without TLS (dev mode only)")
	}

	httpServer := &http.Server{
		Addr: net.JoinHostPort("", config.HTTPPort),
		Handler: rest.NewServer(svc, rest.Options{
			BasePath: config.BasePath,
			Logger:   log.Logger,
			Metrics:  m,
			Gatherer: prometheus.DefaultGatherer,
		}),
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("base_path", config.BasePath).Msg("HTTP server listening")
		var err error
		if tlsCfg != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpcAdapter.Server
	if config.GRPCPort != "" {
		grpcServer, err = grpcAdapter.NewServer(svc, grpcAdapter.Options{
			Logger:     log.Logger,
			Registerer: prometheus.DefaultRegisterer,
			TLS:        tlsCfg,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gRPC server")
		}

		listener, err := net.Listen("tcp", net.JoinHostPort("", config.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to listen")
		}

		go func() {
			log.Info().Str("port", config.GRPCPort).Msg("gRPC server listening")
			if err := grpcServer.Serve(listener); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("gRPC server shutdown failed")
		}
	}

	log.Info().Msg("server stopped")
}

func setupLogger(config Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.Logger.With().Str("service", "polaris").Logger()

	// log.Ctx falls back to the global logger outside a request
	zerolog.DefaultContextLogger = &log.Logger
}

// openRepository initializes the store selected by REPO_TYPE
func openRepository(ctx context.Context, config Config) (repository, error) {
	switch config.RepoType {
	case "sqlite":
		r, err := sqlite.NewMeasurementRepository(config.DBPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("db_path", config.DBPath).Msg("initialized SQLite repository")
		return r, nil
	case "postgres":
		if config.DBDSN == "" {
			return nil, errors.New("DB_DSN is required when REPO_TYPE=postgres")
		}
		r, err := postgres.Connect(ctx, config.DBDSN)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("initialized PostgreSQL repository")
		return r, nil
	case "memory", "":
		log.Info().Msg("initialized in-memory repository")
		return memory.NewMeasurementRepository(), nil
	default:
		return nil, fmt.Errorf("unknown repository type %q", config.RepoType)
	}
}
