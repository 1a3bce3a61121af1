// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/pkg/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and inspect review projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a review project",
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review projects",
	RunE:  runProjectList,
}

var projectArticlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List a project's articles",
	RunE:  runProjectArticles,
}

func init() {
	projectCreateCmd.Flags().String("name", "", "project name")
	projectCreateCmd.Flags().String("description", "", "project description")
	projectCreateCmd.MarkFlagRequired("name")

	projectArticlesCmd.Flags().String("project", "", "project ID")
	projectArticlesCmd.Flags().String("status", "", "filter by screening status: pending, include, exclude, maybe")
	projectArticlesCmd.Flags().Bool("json", false, "output articles as JSON")
	projectArticlesCmd.MarkFlagRequired("project")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectArticlesCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	desc, _ := cmd.Flags().GetString("description")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p := &types.Project{Name: name, Description: desc}
	if err := st.CreateProject(cmd.Context(), p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.ID, p.Name)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	projects, err := st.ListProjects(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-30s  %s\n", "ID", "Name", "Created")
	for _, p := range projects {
		fmt.Fprintf(w, "%-36s  %-30s  %s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runProjectArticles(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	status, _ := cmd.Flags().GetString("status")
	asJSON, _ := cmd.Flags().GetBool("json")

	if status != "" && !types.ScreeningStatus(status).Valid() {
		return fmt.Errorf("invalid --status %q", status)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.GetProject(cmd.Context(), projectID); err != nil {
		return fmt.Errorf("loading project %s: %w", projectID, err)
	}
	articles, err := st.ListProjectArticles(cmd.Context(), projectID, types.ScreeningStatus(status))
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}
	printArticles(cmd.OutOrStdout(), articles)
	return nil
}

func printArticles(w io.Writer, articles []types.ProjectArticle) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-8s  %-4s  %-10s  %s\n", "ID", "Status", "Year", "Source", "Title")
	for _, a := range articles {
		year := ""
		if a.Year > 0 {
			year = fmt.Sprintf("%d", a.Year)
		}
		fmt.Fprintf(w, "%-36s  %-8s  %-4s  %-10s  %s\n", a.ID, a.ScreeningStatus, year, a.Source, a.Title)
	}
	fmt.Fprintf(w, "\n%d articles\n", len(articles))
}
