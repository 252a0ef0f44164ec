// Package main provides the orchestrator entrypoint.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/llm-orchestrator/config"
	"github.com/upb/llm-orchestrator/internal/observability"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orchestrator",
		Short: "Intent-aware LLM routing service",
		Long: `Routes prompts to the best available model for their intent,
falling back across providers when a model is cooling down or failing.

Usage modes:
  orchestrator           Start the HTTP API (same as 'serve')
  orchestrator route     Show the routing decision for a prompt
  orchestrator token     Issue an admin token for protected routes`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		routeCmd(),
		tokenCmd(),
	)

	return rootCmd
}

// loadRuntime reads configuration from the environment and builds the logger
func loadRuntime(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger, nil
}
