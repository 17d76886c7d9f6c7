// Package cmd defines and implements the CLI commands for the sha256-digest executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/config"
	"github.com/JakeFAU/sha256-digest/internal/logging"
)

type appKeyType string

const appKey appKeyType = "app"

// App is the shared state handed to subcommands.
// Tests replace newApp to inject their own.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Close()
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func (a *app) Config() config.Config { return a.cfg }

func (a *app) Logger() *zap.Logger { return a.logger }

func (a *app) Close() {
	// Sync on a terminal stderr returns EINVAL; nothing useful to do with it.
	_ = a.logger.Sync()
}

var newApp = func(_ context.Context, path string) (App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "sha256-digest",
		Short: "Compute and verify SHA-256 digests.",
		Long: `sha256-digest computes FIPS 180-4 SHA-256 digests of files, standard input,
and literal strings, verifies payloads against expected digests, and can run
as an HTTP service that records every digest it computes.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = logging.WithLogger(ctx, appInstance.Logger())
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and DIGEST_* environment variables otherwise)")

	cmd.AddCommand(newSumCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
