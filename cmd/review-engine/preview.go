// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/pkg/types"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the screening prompt for an article without calling a model",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().String("criteria", "", "PICO criteria file (YAML or JSON)")
	previewCmd.Flags().String("title", "", "article title")
	previewCmd.Flags().String("abstract", "", "article abstract")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("criteria")
	title, _ := cmd.Flags().GetString("title")
	abstract, _ := cmd.Flags().GetString("abstract")

	pico, err := readCriteria(path)
	if err != nil {
		return err
	}
	prompt, err := newScreener(newProviders(), nil).PreviewPrompt(types.ArticleInput{Title: title, Abstract: abstract}, pico)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return nil
}
