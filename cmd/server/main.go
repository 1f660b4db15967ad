package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/lecture-fetch/api"
	"github.com/yourusername/lecture-fetch/api/handlers"
	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var configPath = flag.String("config", "", "Config file (default: search ./configs, ~/.lecture-fetch, /etc/lecture-fetch)")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lecture-fetch-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:       config.Logging.Level,
		Format:      config.Logging.Format,
		OutputPath:  config.Logging.OutputPath,
		ErrorLogDir: config.Output.LogsDir,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting lecture-fetch server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Any("search_order", config.Orchestrator.SearchOrder),
		zap.Bool("history", config.History.Enabled))

	components, err := app.Build(config, log)
	if err != nil {
		return err
	}
	defer components.Close()

	if err := components.Ready(); err != nil {
		return err
	}

	if config.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(components.Service, components.Ready, config.Server.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server exited")
	return nil
}
