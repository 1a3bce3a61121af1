// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/search"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Resolve search records into the catalog and link them to a project",
	Long: `Ingest stores search records for a project. Each source's records are
resolved against the shared catalog of works (by title fingerprint, DOI,
then PMID) and linked to the project once. Records come either from a
fresh search (--query) or from a saved query file (--from).`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("project", "", "project ID")
	ingestCmd.Flags().String("from", "", "query file written by search --save")
	addQueryFlags(ingestCmd)
	ingestCmd.MarkFlagRequired("project")
	ingestCmd.MarkFlagsMutuallyExclusive("from", "query")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	from, _ := cmd.Flags().GetString("from")

	var (
		queryText string
		results   []search.SourceResult
	)
	if from != "" {
		qf, err := search.ReadQueryFile(from)
		if err != nil {
			return err
		}
		queryText, results = qf.Query.Text, qf.Results
	} else {
		q, sources, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}
		out, err := search.Run(cmd.Context(), q, sources, cfg.Search, logger)
		if err != nil {
			return err
		}
		queryText, results = q.Text, out.Results
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	resolver := newResolver(st, nil)

	w := cmd.OutOrStdout()
	var saved, dups, failed int
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%-18s skipped (search failed: %s)\n", r.Source, r.Error)
			continue
		}
		sum, err := resolver.Ingest(cmd.Context(), projectID, r.Source, queryText, r.Records)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", r.Source, err)
		}
		fmt.Fprintf(w, "%-18s saved %d, duplicates %d, failed %d\n", r.Source, sum.Saved, sum.Duplicates, sum.Failed)
		saved += sum.Saved
		dups += sum.Duplicates
		failed += sum.Failed
	}
	fmt.Fprintf(w, "\nTotal: saved %d, duplicates %d, failed %d\n", saved, dups, failed)
	return nil
}
