package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sspyviz/internal/config"
	"sspyviz/internal/services"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags
	var format string
	var outPath string
	var excluded bool

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the processed data as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat := services.ExportFormat(strings.ToLower(format))

			svc, summary, err := ctx.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, svc)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			name, err := svc.Export(cmd.Context(), summary.ID, opts, exportFormat, excluded, &buf)
			if err != nil {
				return err
			}

			if outPath == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				paths, err := config.ResolvePaths(cfg.Paths)
				if err != nil {
					return err
				}
				if err := paths.EnsureDirectories(); err != nil {
					return err
				}
				outPath = paths.GetExportPath(exportFileName(name))
			}
			size := buf.Len()
			f, err := ctx.createOutput(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := buf.WriteTo(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", size, outPath)
			return nil
		},
	}

	addPipelineFlags(cmd, &flags)
	cmd.Flags().StringVarP(&format, "format", "f", string(services.ExportCSV), "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: timestamped file in the exports directory)")
	cmd.Flags().BoolVar(&excluded, "excluded", false, "Export the excluded records instead")
	return cmd
}

// exportFileName makes the suggested name safe on every file system
func exportFileName(name string) string {
	return strings.ReplaceAll(name, ":", "-")
}
