package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/config"
	"github.com/jayjaytrn/URLMapper/internal/db"
	"github.com/jayjaytrn/URLMapper/internal/handlers"
	"github.com/jayjaytrn/URLMapper/internal/metrics"
	"github.com/jayjaytrn/URLMapper/internal/shortener"
	"github.com/jayjaytrn/URLMapper/internal/urlshort"
	"github.com/jayjaytrn/URLMapper/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.GetSugaredLogger().Fatalw("failed to load config", "error", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logging.GetSugaredLogger().Fatalw("failed to initialize logger", "error", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, logger); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
}

// app is everything run needs besides the listener.
type app struct {
	router  http.Handler
	storage db.ShortenerStorage
}

func newApp(cfg *config.Config, logger *zap.SugaredLogger) (*app, error) {
	s, err := db.GetStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	service := shortener.NewService(s, shortener.Options{
		MaxInsertAttempts: cfg.MaxInsertAttempts,
		Generator:         urlshort.NewGenerator(cfg.MaxCodeDraws),
		Metrics:           m,
		Logger:            logger,
	})

	h := &handlers.Handler{
		Config:  cfg,
		Service: service,
		Logger:  logger,
	}

	return &app{
		router:  handlers.NewRouter(h, logger, m),
		storage: s,
	}, nil
}

// run serves until ctx is canceled, then drains in-flight requests and closes the storage.
func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.storage.Close(context.Background()); err != nil {
			logger.Errorw("failed to close storage", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("starting server", "address", cfg.ServerAddress, "storage", cfg.StorageType)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err = <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
