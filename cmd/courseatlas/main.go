// Command courseatlas ingests course catalog extracts, crawls instructor ratings
// and serves the catalog over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/courseatlas/cmd/courseatlas/cmd"
	"github.com/yigit/courseatlas/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
