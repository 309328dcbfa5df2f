package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Validate every survey file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.datasetService(); err != nil {
				return err
			}
			files, err := ctx.files.FindSurveyFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No survey files in %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(files))
			failed := 0
			for _, path := range files {
				row, fileErr, err := scanFile(cmd, ctx, &flags, path)
				if err != nil {
					return err
				}
				if fileErr != nil {
					failed++
					row[4] = fileErr.Error()
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Records", "Valid", "Excluded", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	addPipelineFlags(cmd, &flags)
	return cmd
}

// scanFile loads and processes one survey file and returns its report row.
// fileErr is a failure of that file alone; err aborts the scan. The loaded
// dataset is removed again on every path.
func scanFile(cmd *cobra.Command, ctx *commandContext, flags *pipelineFlags, path string) (row []string, fileErr, err error) {
	row = []string{filepath.Base(path), "", "", "", ""}
	svc, summary, loadErr := ctx.loadFile(cmd.Context(), path)
	if loadErr != nil {
		return row, loadErr, nil
	}
	defer func() {
		if delErr := svc.Delete(cmd.Context(), summary.ID); delErr != nil {
			ctx.logger.Warn("failed to remove scanned dataset",
				slog.String("file", path),
				slog.String("dataset_id", summary.ID),
				slog.String("error", delErr.Error()))
		}
	}()
	row[1] = strconv.Itoa(summary.Observations)

	opts, err := flags.options(cmd, svc)
	if err != nil {
		return row, nil, err
	}
	result, processErr := svc.Process(cmd.Context(), summary.ID, opts)
	if processErr != nil {
		return row, processErr, nil
	}
	row[2] = strconv.Itoa(result.Info.Observations)
	row[3] = strconv.Itoa(result.Excluded.Len())
	return row, nil, nil
}
