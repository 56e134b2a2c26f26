package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sjlangley/social-golf-spa/app"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	obs := observability.Init(config.ToObsConfig(cfg, "golf-api"))
	logger := obs.Logger
	logger.Info("Starting golf-api")

	application, err := app.NewAPI(ctx, cfg, obs)
	if err != nil {
		logger.Error("Failed to initialize application", attr.Error(err))
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		logger.Error("Application stopped with error", attr.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := application.Close(shutdownCtx); err != nil || runErr != nil {
		os.Exit(1)
	}
}
