package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/llm-orchestrator/app"
	"github.com/upb/llm-orchestrator/services/routing"
)

func routeCmd() *cobra.Command {
	var (
		prompt     string
		intent     string
		preference string
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show the routing decision for a prompt without calling a provider",
		Long: `Classifies the prompt (unless --intent is given) and prints the primary
model and fallback chain the service would use right now.

Examples:
  orchestrator route --prompt "Write a python function to sort a list"
  orchestrator route --intent writing --preference cost`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" && intent == "" {
				return fmt.Errorf("either --prompt or --intent is required")
			}
			pref, err := parsePreference(preference)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, logger, err := loadRuntime(ctx)
			if err != nil {
				return err
			}

			deps, err := app.NewDependencies(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close(context.Background())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(deps.Inference.Plan(prompt, intent, pref))
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt to classify")
	cmd.Flags().StringVarP(&intent, "intent", "i", "", "Skip classification and route this intent")
	cmd.Flags().StringVar(&preference, "preference", string(routing.PreferenceBalanced), "Routing preference: cost, speed, quality or balanced")

	return cmd
}

func parsePreference(raw string) (routing.Preference, error) {
	switch p := routing.Preference(raw); p {
	case routing.PreferenceCost, routing.PreferenceSpeed, routing.PreferenceQuality, routing.PreferenceBalanced:
		return p, nil
	default:
		return "", fmt.Errorf("invalid preference %q", raw)
	}
}
