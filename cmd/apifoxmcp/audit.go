package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the response completeness of every endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		showComplete, _ := cmd.Flags().GetBool("show-complete")

		srv, _, err := newServer()
		if err != nil {
			return err
		}
		defer srv.Stop()

		out, err := srv.Audit(context.Background(), tag, showComplete)
		if err != nil {
			errortypes.LogError(nil, err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringP("tag", "t", "", "Only audit endpoints carrying this tag")
	auditCmd.Flags().Bool("show-complete", false, "List complete endpoints too")
}
