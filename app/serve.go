package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lenda-labs/uid-signer/cmd/version"
	"github.com/lenda-labs/uid-signer/internal/attestation"
	"github.com/lenda-labs/uid-signer/internal/config"
	"github.com/lenda-labs/uid-signer/internal/metrics"
	"github.com/lenda-labs/uid-signer/internal/registry"
	"github.com/lenda-labs/uid-signer/internal/server"
	"github.com/lenda-labs/uid-signer/internal/tracing"
)

const serveLong = `Start the HTTP signing service.

Environment:
  PRIVATE_KEY           hex secp256k1 signing key (required)
  RPC_URL               JSON-RPC endpoint (default ` + config.DefaultRPCURL + `)
  UID_ADDRESS           UniqueIdentity registry (default ` + config.DefaultRegistryAddress + `)
  LISTEN_ADDR           listen address (default ` + config.DefaultListenAddr + `)
  VALIDITY_WINDOW       attestation lifetime (default 1h)
  DEFAULT_ID_TYPE       identity type when a request omits it (default 1)
  CORS_ALLOWED_ORIGINS  comma separated origins, * for any (default *)
  RPC_DIAL_TIMEOUT      per-attempt timeout for the startup probe (default 10s)
  RPC_DIAL_ATTEMPTS     startup probe attempts (default 5)
  SHUTDOWN_TIMEOUT      grace period for in-flight requests (default 10s)
  LOG_LEVEL             debug, info, warn or error (default info)
  OTEL_EXPORTER_OTLP_ENDPOINT  OTLP/HTTP collector for spans (default disabled)
  TRACE_SAMPLE_RATIO    fraction of requests traced (default 1)`

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP signing service",
		Long:  serveLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			logger, err := newLogger(cfg.Level())
			if err != nil {
				return errors.Wrap(err, "build logger")
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// serve runs until ctx is cancelled or the listener fails.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting uid-signer", append(cfg.Fields(), zap.String("version", version.GetVersion()))...)

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:       cfg.TracingEndpoint,
		ServiceName:    "uid-signer",
		ServiceVersion: version.GetVersion(),
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush spans", zap.Error(err))
		}
	}()

	signer, err := attestation.NewSigner(cfg.PrivateKey.Value())
	if err != nil {
		return errors.Wrap(err, "load signing key")
	}
	logger.Info("loaded signing key", zap.String("signer", signer.Address().Hex()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(reg, logger)

	nonces, err := registry.Dial(ctx, cfg.RPCURL, cfg.Registry(), registry.DialOptions{
		Timeout:    cfg.RPCDialTimeout,
		MaxRetries: cfg.RPCDialAttempts - 1,
		Logger:     logger.Named("registry"),
	})
	if err != nil {
		return err
	}
	defer nonces.Close()

	issuer, err := attestation.NewIssuer(signer, nonces,
		attestation.WithValidityWindow(cfg.ValidityWindow),
		attestation.WithDefaultIdentityType(cfg.DefaultIdentityType),
		attestation.WithLogger(logger.Named("issuer")),
		attestation.WithMetrics(recorder),
	)
	if err != nil {
		return errors.Wrap(err, "build issuer")
	}

	srv := server.New(issuer, server.Options{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Info: server.Info{
			Contract: nonces.Address(),
			RPC:      cfg.RPCURL,
			Version:  version.GetVersion(),
		},
		Gatherer: reg,
		Metrics:  recorder,
		Logger:   logger.Named("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "http server")
	}
	logger.Info("uid-signer stopped")
	return nil
}
