package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/repairdesk/internal/config"
	"github.com/iudanet/repairdesk/internal/crypto"
	"github.com/iudanet/repairdesk/internal/ratelimit"
	"github.com/iudanet/repairdesk/internal/security"
	"github.com/iudanet/repairdesk/internal/server"
	"github.com/iudanet/repairdesk/internal/server/metrics"
	"github.com/iudanet/repairdesk/internal/server/middleware"
	"github.com/iudanet/repairdesk/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	issueToken := flag.String("issue-token", "", "Print a tenant JWT for the given repairer id and exit (development)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the token printed by -issue-token")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *issueToken != "" {
		token, err := middleware.IssueTenantToken(jwtConfig(cfg), *issueToken, *tokenTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		os.Exit(0)
	}

	logger := config.NewLogger(cfg.Logger, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if cfg.Catalog.SeedPath != "" {
		catalog, err := sqlite.LoadBaseCatalogFile(cfg.Catalog.SeedPath)
		if err != nil {
			return err
		}
		if err := store.ImportBaseCatalog(ctx, catalog); err != nil {
			return fmt.Errorf("failed to import base catalog: %w", err)
		}
		logger.Info("base catalog imported",
			slog.String("path", cfg.Catalog.SeedPath),
			slog.Int("brands", len(catalog.Brands)),
			slog.Int("prices", len(catalog.BasePrices)))
	}

	sessions, err := newSecurityService(cfg, logger)
	if err != nil {
		return err
	}

	limiters := server.Limiters{
		Login: ratelimit.New(ratelimit.LoginConfig, logger),
		API:   ratelimit.New(ratelimit.APIConfig, logger),
		Admin: ratelimit.New(ratelimit.AdminConfig, logger),
	}
	defer limiters.Login.Stop()
	defer limiters.API.Stop()
	defer limiters.Admin.Stop()

	handler := server.NewHandler(server.Deps{
		Logger:   logger,
		Catalog:  store,
		Audit:    store,
		Sessions: sessions,
		Metrics:  metrics.New(),
		DB:       store.DB(),
		Limiters: limiters,
		JWT:      jwtConfig(cfg),
		Version:  Version,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	logger.Info("RepairDesk server starting",
		slog.String("version", Version),
		slog.String("address", cfg.Server.Address),
		slog.String("database", cfg.Database.Path))

	return server.New(logger, cfg.Server.Address, handler).Run(ctx)
}

// newSecurityService использует ключ из конфига, иначе ключ из fingerprint процесса
func newSecurityService(cfg *config.Config, logger *slog.Logger) (*security.Service, error) {
	opts := []security.Option{
		security.WithLogger(logger),
		security.WithSessionTTL(cfg.Security.SessionTTL),
	}

	if cfg.Security.EncryptionKey == "" {
		logger.Warn("security.encryption_key is not set, deriving key from process fingerprint")
		return security.NewFromFingerprint(crypto.CollectFingerprint(cfg.Security.VersionSalt), opts...)
	}

	key, err := base64.StdEncoding.DecodeString(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return security.New(key, opts...)
}

func jwtConfig(cfg *config.Config) middleware.TenantJWTConfig {
	return middleware.TenantJWTConfig{
		Issuer: cfg.JWT.Issuer,
		Secret: []byte(cfg.JWT.Secret),
		Leeway: cfg.JWT.Leeway,
	}
}

func printVersion() {
	fmt.Printf("RepairDesk Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
