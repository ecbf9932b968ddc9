package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trafficsignal/internal/app"
	"trafficsignal/internal/config"
	"trafficsignal/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to start: %v", err)
		appLogger.Close()
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		appLogger.Error("Server stopped with error: %v", err)
		appLogger.Close()
		os.Exit(1)
	}
}
