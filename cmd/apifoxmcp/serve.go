package main

import (
	"github.com/spf13/cobra"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Apifox tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	srv, appLogger, err := newServer()
	if err != nil {
		errortypes.LogError(nil, err)
		return err
	}
	defer srv.Stop()

	setupSignalHandler(srv, appLogger)

	// blocks until the client disconnects
	appLogger.Info("Starting MCP server on stdio")
	if err := srv.Start(); err != nil {
		errortypes.LogError(nil, errortypes.InternalError(err, "MCP server failed"))
		return err
	}
	return nil
}
