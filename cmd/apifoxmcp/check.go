package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localrivet/apifoxmcp/internal/document"
	"github.com/localrivet/apifoxmcp/internal/errortypes"
	"github.com/localrivet/apifoxmcp/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the credentials by exporting the project once",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, _, err := newServer()
		if err != nil {
			return err
		}
		defer srv.Stop()

		cfg := srv.Config()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Project ID: %s\n", cfg.Apifox.ProjectID)
		fmt.Fprintf(out, "Base URL: %s\n", cfg.Apifox.BaseURL)

		doc, err := srv.Check(context.Background())
		if err != nil {
			errortypes.LogError(nil, err)
			fmt.Fprintln(out, "Connection test: failed")
			return err
		}
		fmt.Fprintln(out, "Connection test: OK")
		if doc.Info != nil {
			fmt.Fprintf(out, "Project: %s\n", doc.Info.Title)
		}
		fmt.Fprintf(out, "Endpoints: %d\n", len(report.Endpoints(doc)))
		fmt.Fprintf(out, "Schemas: %d\n", len(document.ComponentNamesOf(doc)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
