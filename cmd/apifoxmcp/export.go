package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localrivet/apifoxmcp/internal/errortypes"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the project as an OpenAPI document",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")
		folders, _ := cmd.Flags().GetBool("folders-as-tags")

		// the extension picks the format unless one was given
		if format == "" {
			switch strings.ToLower(filepath.Ext(output)) {
			case ".yaml", ".yml":
				format = "yaml"
			default:
				format = "json"
			}
		}

		srv, appLogger, err := newServer()
		if err != nil {
			return err
		}
		defer srv.Stop()

		raw, fingerprint, err := srv.Export(context.Background(), format, folders)
		if err != nil {
			errortypes.LogError(nil, err)
			return err
		}

		if output == "" || output == "-" {
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		}
		if err := os.WriteFile(output, raw, 0644); err != nil {
			return fmt.Errorf("unable to write file %s: %w", output, err)
		}
		appLogger.Info("Wrote %s (%d bytes, fingerprint %s)", output, len(raw), fingerprint)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "-", "Output filepath, - for stdout")
	exportCmd.Flags().StringP("format", "f", "", "json or yaml; defaults from the output extension")
	exportCmd.Flags().Bool("folders-as-tags", false, "Add each endpoint's folder to its tags")
	exportCmd.MarkFlagFilename("output", "yaml", "yml", "json")
}
