// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect the configured LLM providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers, whether each has an API key, and their models",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-10s  %-18s  %-9s  %s\n", "Name", "Label", "Available", "Default model")
		for _, p := range newProviders().Providers() {
			fmt.Fprintf(w, "%-10s  %-18s  %-9t  %s\n", p.Name, p.Label, p.Available, p.DefaultModel)
		}
		return nil
	},
}

var providersTestCmd = &cobra.Command{
	Use:   "test NAME",
	Short: "Send a short request to a provider to check its credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newProviders().Get(args[0])
		if err != nil {
			return err
		}
		if !p.Available() {
			return &llm.ConfigurationError{Provider: p.Name(), Reason: "has no API key configured"}
		}
		status := p.TestConnection(cmd.Context())
		if !status.Success {
			return fmt.Errorf("%s: connection failed: %s", p.Name(), status.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%s)\n", p.Name(), status.Message)
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd, providersTestCmd)
	rootCmd.AddCommand(providersCmd)
}
