package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"salespulse/internal/app"
	"salespulse/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = application.Run(ctx)
	infrastructure.CloseLogFile()
	if err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
