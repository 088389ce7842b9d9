package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prognoshealth/lambdarest/config"
	"github.com/prognoshealth/lambdarest/devserver"
	"github.com/prognoshealth/lambdarest/handler"
	"github.com/prognoshealth/lambdarest/internal/echo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	fn := handler.New(handler.Restful(echo.Resource{}), cfg.HandlerOptions(logger)...).Handle
	router := devserver.New(fn,
		devserver.WithLogger(logger),
		devserver.WithStageVariables(cfg.StageVariables),
	)

	srv := &http.Server{
		Addr:              cfg.DevAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.DevAddr).Info("dev server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("dev server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("dev server forced to shutdown")
	}
}
