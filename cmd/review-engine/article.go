// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/pkg/types"
)

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Add articles to a project outside of a search",
}

var articleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one article by hand",
	RunE:  runArticleAdd,
}

var articleUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Add articles from a JSON or YAML records file",
	Long: `Upload adds every record in a file to the project. A record whose DOI or
normalized title already appears in the project, or earlier in the same
file, is counted as a duplicate and skipped.`,
	RunE: runArticleUpload,
}

func init() {
	articleAddCmd.Flags().String("project", "", "project ID")
	articleAddCmd.Flags().String("title", "", "article title")
	articleAddCmd.Flags().String("abstract", "", "article abstract")
	articleAddCmd.Flags().StringSlice("authors", nil, "authors")
	articleAddCmd.Flags().String("journal", "", "journal name")
	articleAddCmd.Flags().Int("year", 0, "publication year")
	articleAddCmd.Flags().String("doi", "", "DOI")
	articleAddCmd.Flags().String("pmid", "", "PubMed ID")
	articleAddCmd.MarkFlagRequired("project")
	articleAddCmd.MarkFlagRequired("title")

	articleUploadCmd.Flags().String("project", "", "project ID")
	articleUploadCmd.Flags().String("file", "", "records file (.json, .yaml, .yml)")
	articleUploadCmd.MarkFlagRequired("project")
	articleUploadCmd.MarkFlagRequired("file")

	articleCmd.AddCommand(articleAddCmd, articleUploadCmd)
	rootCmd.AddCommand(articleCmd)
}

func runArticleAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	projectID, _ := f.GetString("project")
	rec := types.RawRecord{}
	rec.Title, _ = f.GetString("title")
	rec.Abstract, _ = f.GetString("abstract")
	rec.Authors, _ = f.GetStringSlice("authors")
	rec.Journal, _ = f.GetString("journal")
	rec.Year, _ = f.GetInt("year")
	rec.DOI, _ = f.GetString("doi")
	rec.PMID, _ = f.GetString("pmid")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := newResolver(st, nil).AddManual(cmd.Context(), projectID, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added article %s\n", a.ID)
	return nil
}

func runArticleUpload(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	path, _ := cmd.Flags().GetString("file")

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sum, err := newResolver(st, nil).AddUploaded(cmd.Context(), projectID, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d, duplicates %d, failed %d (of %d records)\n",
		sum.Added, sum.Duplicates, sum.Failed, len(records))
	return nil
}
