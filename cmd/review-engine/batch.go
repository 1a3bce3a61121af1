// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/screen"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Screen every pending article in a project",
	Long: `Batch screens the project's pending articles one at a time and writes one
JSON event per line to stdout: start, then progress or error per article,
then complete. Articles without a title are counted as skipped. A failure
before the first article (unknown project, unusable provider) is reported
as a fatal_error event and a non-zero exit status. Interrupting the command
stops the batch after the article in flight.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().String("project", "", "project ID")
	batchCmd.Flags().String("criteria", "", "PICO criteria file (YAML or JSON)")
	batchCmd.Flags().String("provider", "", "LLM provider: openai, anthropic, gemini")
	batchCmd.Flags().String("model", "", "model (default: the provider's default)")
	batchCmd.MarkFlagRequired("project")
	batchCmd.MarkFlagRequired("criteria")
	batchCmd.MarkFlagRequired("provider")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	path, _ := cmd.Flags().GetString("criteria")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")

	pico, err := readCriteria(path)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	orch := screen.NewOrchestrator(newScreener(newProviders(), nil), st, logger)
	return orch.Run(cmd.Context(), screen.BatchRequest{
		ProjectID: projectID,
		Provider:  provider,
		Model:     model,
		Criteria:  pico,
	}, screen.NewJSONLinesSink(cmd.OutOrStdout()))
}
