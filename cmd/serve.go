package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studyroomhq/studyroom-server/internal/app"
	"github.com/studyroomhq/studyroom-server/internal/config"
	"github.com/studyroomhq/studyroom-server/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the study room server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	bootLogger := log.New("info")

	cfg, cfgPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", cfgPath).Str("addr", cfg.Addr).Msg("starting studyroom server")

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}
