package main

import (
	"context"
	"log/slog"
	"os"

	"cunydash/internal/app"
	"cunydash/internal/config"
	"cunydash/internal/infrastructure"
)

func main() {
	ctx := context.Background()

	application, err := app.New(ctx, config.VariantEnrollment)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(ctx); err != nil {
		infrastructure.WithError(application.Logger, err).Error("Application error")
		os.Exit(1)
	}
}
