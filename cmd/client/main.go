package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coinrush-client/internal/client/cli"
	"coinrush-client/internal/client/config"
	"coinrush-client/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewLogrusLogger("coinrush", cfg.App.Env)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
