package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/paygate/infra/initializer"
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/webapi"
	log "github.com/charmbracelet/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(deps, cfg)
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("❌ failed to release resources", "error", err)
		}
	}()

	// Setup Fiber app with all routes and middleware
	fiberApp := webapi.SetupApp(a)

	addr := listenAddr(cfg.Server)
	logger.Info("🚀 starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"signature_verification", a.Verifier.Enabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func listenAddr(s *config.Server) string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
