package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/toolgate-ai/toolgate/internal/auth"
	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/dispatch"
	"github.com/toolgate-ai/toolgate/internal/ratelimit"
	"github.com/toolgate-ai/toolgate/internal/registry"
	"github.com/toolgate-ai/toolgate/internal/resources"
	"github.com/toolgate-ai/toolgate/internal/server"
	"github.com/toolgate-ai/toolgate/internal/sqldb"
	"github.com/toolgate-ai/toolgate/internal/storage"
	"github.com/toolgate-ai/toolgate/internal/tools"
)

func main() {
	cfg, err := config.Load(os.Getenv("TOOLGATE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Logger — stderr only, stdout belongs to the stdio transport.
	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting toolgate server",
		zap.String("transport", cfg.Transport),
		zap.Bool("require_auth", cfg.RequireAuth),
		zap.Int("rate_limit_quota", cfg.RateLimitQuota),
		zap.Int("rate_limit_window_s", cfg.RateLimitWindow),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Demo database for the SQL tool and the users resource.
	db, err := sqldb.Open(ctx, sqldb.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	logger.Info("database ready", zap.String("driver", cfg.DBDriver))

	// Event sink — ClickHouse or LogWriter fallback.
	var writer storage.EventWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Authenticator strategy.
	var authenticator auth.Authenticator
	switch {
	case !cfg.RequireAuth || cfg.AuthMode == config.AuthModeNone:
		authenticator = auth.NewAllowAll()
		logger.Info("authentication disabled")
	case cfg.AuthMode == config.AuthModeAPIKey:
		authenticator = auth.NewAPIKeyAuthenticator(cfg.APIKeyHash)
		logger.Info("using api key authenticator")
	default:
		authenticator = auth.NewJWTAuthenticator(cfg.SharedSecret)
		logger.Info("using jwt authenticator")
	}

	issuer := auth.NewIssuer(cfg.SharedSecret)
	limiter := ratelimit.NewLimiter(cfg.RateLimitQuota, cfg.Window())

	// Registries.
	toolReg := registry.NewToolRegistry()
	if err := tools.RegisterAll(toolReg, tools.Deps{Config: cfg, DB: db, Issuer: issuer}); err != nil {
		logger.Fatal("failed to register tools", zap.Error(err))
	}
	resourceReg := registry.NewResourceRegistry()
	if err := resources.RegisterAll(resourceReg, cfg, db); err != nil {
		logger.Fatal("failed to register resources", zap.Error(err))
	}
	logger.Info("registries ready",
		zap.Int("tools", len(toolReg.List())),
		zap.Int("resources", len(resourceReg.List())),
	)

	dispatcher := dispatch.NewDispatcher(limiter, authenticator, toolReg, writer, logger)

	srv := server.New(server.Config{
		Dispatcher:      dispatcher,
		Tools:           toolReg,
		Resources:       resourceReg,
		Logger:          logger,
		StdioCredential: os.Getenv("TOOLGATE_STDIO_BEARER"),
	})

	switch cfg.Transport {
	case "http":
		logger.Info("serving streamable http", zap.String("addr", cfg.HTTPAddr))
		err = srv.RunHTTP(ctx, cfg.HTTPAddr)
	default:
		logger.Info("serving stdio")
		err = srv.RunStdio(ctx)
	}
	if err != nil && ctx.Err() == nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
