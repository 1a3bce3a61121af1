// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen one article against PICO criteria",
	Long: `Screen sends one article to an LLM provider and prints the verdict. Give
the article inline with --title/--abstract, or name a stored one with
--project and --article; a stored article's verdict is recorded and its
screening status updated.`,
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().String("criteria", "", "PICO criteria file (YAML or JSON)")
	screenCmd.Flags().String("provider", "", "LLM provider: openai, anthropic, gemini")
	screenCmd.Flags().String("model", "", "model (default: the provider's default)")
	screenCmd.Flags().String("title", "", "article title")
	screenCmd.Flags().String("abstract", "", "article abstract")
	screenCmd.Flags().String("project", "", "project ID of a stored article")
	screenCmd.Flags().String("article", "", "stored article ID")
	screenCmd.Flags().Bool("json", false, "output the verdict as JSON")
	screenCmd.MarkFlagRequired("criteria")
	screenCmd.MarkFlagRequired("provider")
	screenCmd.MarkFlagsRequiredTogether("project", "article")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	path, _ := f.GetString("criteria")
	provider, _ := f.GetString("provider")
	model, _ := f.GetString("model")
	title, _ := f.GetString("title")
	abstract, _ := f.GetString("abstract")
	projectID, _ := f.GetString("project")
	articleID, _ := f.GetString("article")
	asJSON, _ := f.GetBool("json")

	pico, err := readCriteria(path)
	if err != nil {
		return err
	}
	req := screen.Request{
		Article:  types.ArticleInput{Title: title, Abstract: abstract},
		Criteria: pico,
		Provider: provider,
		Model:    model,
	}
	screener := newScreener(newProviders(), nil)

	var v types.Verdict
	if articleID != "" {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		v, err = screen.NewOrchestrator(screener, st, logger).ScreenAndRecord(cmd.Context(), projectID, articleID, req)
		if err != nil {
			return err
		}
	} else {
		if title == "" {
			return fmt.Errorf("--title is required unless --project and --article name a stored article")
		}
		v, err = screener.ScreenArticle(cmd.Context(), req)
		if err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	printVerdict(cmd.OutOrStdout(), v)
	return nil
}

func printVerdict(w io.Writer, v types.Verdict) {
	fmt.Fprintf(w, "Decision:  %s\n", v.Decision)
	fmt.Fprintf(w, "Rationale: %s\n", v.Rationale)
	fmt.Fprintf(w, "Model:     %s/%s\n", v.Provider, v.Model)
	if v.ParseDegraded {
		fmt.Fprintln(w, "Note:      reply was not valid JSON; verdict recovered from text")
	}
	printEvaluations(w, "Inclusion", v.InclusionEvaluation)
	printEvaluations(w, "Exclusion", v.ExclusionEvaluation)
	if v.Usage.TotalTokens != nil {
		fmt.Fprintf(w, "\nTokens: %d\n", *v.Usage.TotalTokens)
	}
}

func printEvaluations(w io.Writer, heading string, evals []types.CriterionEvaluation) {
	if len(evals) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s criteria:\n", heading)
	for _, e := range evals {
		fmt.Fprintf(w, "  [%-7s] %s\n", e.Status, e.Criterion)
	}
}
