package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mathsym/mathsym/internal/config"
	"github.com/mathsym/mathsym/internal/handlers"
	"github.com/mathsym/mathsym/internal/history"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recognition HTTP server",
	Long: `Start the mathsym HTTP API.

Endpoints:
  GET  /health                 - model and label status
  GET  /api/v1/info            - model description and confidence threshold
  POST /api/v1/predict/image   - recognize an uploaded image (field "image")
  POST /api/v1/predict         - recognize a preprocessed tensor
  POST /api/v1/render          - replace LaTeX commands with Unicode
  GET  /api/v1/history         - list recognized symbols
  POST /api/v1/history         - save a symbol

Examples:
  mathsym serve
  mathsym serve --port 5000
  curl -X POST -F "image=@symbol.png" http://localhost:8080/api/v1/predict/image`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		return runServer(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind to (overrides server.host)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides server.port)")

	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting mathsym server...")

	c, err := newClassifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeClassifier(c, logger)

	var store handlers.HistoryStore
	if cfg.History.Enabled {
		s, err := openHistory(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	h := handlers.NewHandler(c, store, handlers.Options{
		Dataset:          "HASYv2",
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		MaxImagePixels:   cfg.Classifier.MaxImagePixels,
		RecordRecognized: cfg.History.RecordRecognized,
	}, logger)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(h, logger)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Failed to start server", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

// openHistory opens the configured store, creating the directory of a SQLite file.
func openHistory(cfg *config.Config, logger *zap.Logger) (*history.Store, error) {
	if cfg.History.Driver == history.DriverSQLite {
		if dir := filepath.Dir(cfg.History.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	return history.Open(cfg.History.Driver, cfg.History.DSN, logger)
}
