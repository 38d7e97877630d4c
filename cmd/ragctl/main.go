// Command ragctl indexes local documents and answers questions about them.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driving/cli"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

func main() {
	// A .env file in the working directory may carry API keys.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx, bootstrap); err != nil {
		stop()
		os.Exit(1)
	}
}
