package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccai-examples/ccai-demo/internal/devserver"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr, dbPath, secret, envFile string
		debug                         bool
	)
	cmd := &cobra.Command{
		Use:           "ccai-devserver",
		Short:         "Local chat backend for the terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides devserver.Overrides
			flags := cmd.Flags()
			if flags.Changed("addr") {
				overrides.Addr = &addr
			}
			if flags.Changed("db") {
				overrides.DatabasePath = &dbPath
			}
			if flags.Changed("secret") {
				overrides.SigningSecret = &secret
			}
			if flags.Changed("debug") {
				overrides.Debug = &debug
			}
			if flags.Changed("env-file") {
				overrides.EnvFile = &envFile
			}
			return run(cmd.Context(), overrides)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path, :memory: for a throwaway store")
	cmd.Flags().StringVar(&secret, "secret", "", "token signing secret (overrides CCAI_SIGNING_SECRET)")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug logging and gin debug mode")
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file read before the environment")
	return cmd
}

func run(ctx context.Context, overrides devserver.Overrides) error {
	cfg, err := devserver.Load(overrides)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}

	srv, err := devserver.New(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
