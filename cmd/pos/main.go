package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/iudanet/repairdesk/internal/client/api"
	"github.com/iudanet/repairdesk/internal/client/cache"
	"github.com/iudanet/repairdesk/internal/client/cache/boltdb"
	"github.com/iudanet/repairdesk/internal/client/cli"
	"github.com/iudanet/repairdesk/internal/client/iocli"
	"github.com/iudanet/repairdesk/internal/security"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "repairdesk-pos.db", "Path to local cache")
	passphrase := flag.Bool("passphrase", false, "Derive cache key from an operator passphrase")
	versionSalt := flag.String("version-salt", "", "Fingerprint salt for the cache key")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	console := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(console)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cache: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	key, source, err := cli.ResolveCacheKey(ctx, cli.KeyOptions{
		EnvKey:      os.Getenv("REPAIRDESK_CACHE_KEY"),
		VersionSalt: *versionSalt,
		Passphrase:  *passphrase,
	}, console, boltStorage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("cache key resolved", "source", source)

	cipher, err := security.New(key, security.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := cli.New(console, api.NewClient(*serverURL), cache.New(boltStorage, cipher), os.Getenv("REPAIRDESK_TENANT_TOKEN"))

	// Выполняем команду
	if err := c.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		_ = boltStorage.Close()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("RepairDesk POS\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
