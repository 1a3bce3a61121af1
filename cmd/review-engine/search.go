// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search bibliographic databases for candidate records",
	Long: `Search queries PubMed, OpenAlex and Semantic Scholar concurrently for
records matching a query. Results are deduplicated across sources by DOI,
PMID and title. Use --save to keep the per-source records in a query file
that ingest --from can load later.`,
	RunE: runSearch,
}

func init() {
	addQueryFlags(searchCmd)
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the query and per-source results to a YAML query file")

	rootCmd.AddCommand(searchCmd)
}

// addQueryFlags registers the flags shared by search and ingest.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "search terms")
	cmd.Flags().StringSlice("sources", nil, "sources to query: pubmed, openalex, semantic_scholar (default all)")
	cmd.Flags().Int("from-year", 0, "earliest publication year")
	cmd.Flags().Int("to-year", 0, "latest publication year")
	cmd.Flags().Int("max-results", 0, "maximum records per source (default from config)")
	cmd.Flags().StringSlice("type", nil, "publication types to keep")
}

// queryFromFlags builds a Query and selects sources from the shared flags.
func queryFromFlags(cmd *cobra.Command) (search.Query, []search.Source, error) {
	text, _ := cmd.Flags().GetString("query")
	from, _ := cmd.Flags().GetInt("from-year")
	to, _ := cmd.Flags().GetInt("to-year")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	pubTypes, _ := cmd.Flags().GetStringSlice("type")
	names, _ := cmd.Flags().GetStringSlice("sources")

	q, err := search.QueryParams{Text: text, YearFrom: from, YearTo: to, PublicationTypes: pubTypes}.ToQuery()
	if err != nil {
		return q, nil, err
	}
	q.MaxResults = maxResults
	if q.IsEmpty() {
		return q, nil, fmt.Errorf("--query is required")
	}

	if len(names) == 0 {
		names = cfg.Search.Sources
	}
	sources, err := newSources().Select(names)
	if err != nil {
		return q, nil, err
	}
	return q, sources, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	save, _ := cmd.Flags().GetString("save")

	q, sources, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	out, err := search.Run(cmd.Context(), q, sources, cfg.Search, logger)
	if err != nil {
		return err
	}

	if save != "" {
		if err := search.WriteQueryFile(save, q, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved query file %s\n", save)
	}

	if asJSON {
		return search.FormatJSON(out, cmd.OutOrStdout())
	}
	search.FormatTable(out, cmd.OutOrStdout())
	return nil
}
