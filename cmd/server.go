package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	app "parkwise/internal"
	"parkwise/internal/barrier"
	"parkwise/internal/booking"
	"parkwise/internal/config"
	"parkwise/internal/email"
	"parkwise/internal/entry"
	"parkwise/internal/jobs"
	"parkwise/internal/plate"
	"parkwise/internal/routes"
	"parkwise/internal/storage"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the parking API server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := ServerMain(cmd.Context(), provider); err != nil {
			slog.Error("Server stopped with error", "error", err)
			os.Exit(1)
		}
	},
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	// Determine level from config and set it on the handler options.
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func newNotifier(cfg *config.Config) (booking.Notifier, error) {
	mailer, err := email.NewMailer(cfg.Email)
	if err != nil {
		return nil, err
	}
	if mailer == nil {
		slog.Info("Booking confirmation emails are disabled")
		return booking.NopNotifier{}, nil
	}
	return email.NewConfirmationSender(mailer, cfg.BaseURL, cfg.Email.FromName), nil
}

func ServerMain(ctx context.Context, storageProvider storage.Provider) error {

	if config.Cfg == nil {
		panic("Config not initialized.")
	}
	cfg := config.Cfg

	// Use the provider passed from cobra command (already initialized)
	if storageProvider == nil {
		return errors.New("storage provider is nil")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	recognizer, err := plate.NewFromConfig(ctx, cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to initialize plate recognizer: %w", err)
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	var opts []booking.Option
	if cfg.Email.Timeout > 0 {
		opts = append(opts, booking.WithNotifyTimeout(time.Duration(cfg.Email.Timeout)*time.Second))
	}
	manager := booking.NewManager(storageProvider, notifier, opts...)
	gate := barrier.New()
	pipeline := entry.NewPipeline(recognizer, storageProvider, gate, entry.WithLocation(loc))

	scheduler := jobs.NewScheduler(ctx)
	if cfg.OCR.DebugDir != "" {
		maxAge := time.Duration(cfg.Cleanup.MaxAgeHours) * time.Hour
		if err := scheduler.Add("upload-cleanup", cfg.Cleanup.Schedule, jobs.UploadCleanup(cfg.OCR.DebugDir, maxAge)); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	engine := app.HTTPServer(cfg, &routes.Services{
		Bookings:       manager,
		Entry:          pipeline,
		Barrier:        gate,
		BaseURL:        cfg.BaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	srv := app.Server(cfg, engine)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown incomplete", "error", err)
	}

	// Let pending confirmation emails go out
	manager.Wait()
	return nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
