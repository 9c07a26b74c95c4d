package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-summarizer/api/handlers"
	"github.com/feichai0017/document-summarizer/api/routes"
	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/internal/app"
	"github.com/feichai0017/document-summarizer/internal/utils/validator"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(logger.FromConfig(cfg.Log))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", logger.Error(err))
	}

	ctx := context.Background()
	pipeline, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build pipeline", logger.Error(err))
	}

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload dir", logger.Error(err))
	}
	v := validator.NewDocumentValidator(log, &validator.ValidatorConfig{MaxFileSize: cfg.Extraction.MaxDocumentBytes})

	// init handlers
	h := handlers.NewHandlers(pipeline.Controller, v, cfg.Server.UploadDir, log)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
	if err := pipeline.Controller.Shutdown(shutdownCtx); err != nil {
		log.Error("Pipeline jobs did not stop in time", logger.Error(err))
	}
}
