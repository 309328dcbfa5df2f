package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sspyviz/internal/services"
	"sspyviz/pkg/contracts/domain"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags
	var level string
	var title string
	var htmlOut string

	cmd := &cobra.Command{
		Use:   "profile FILE",
		Short: "Profile the processed columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileLevel := domain.ProfileLevel(level)
			if profileLevel != domain.ProfileMinimal && profileLevel != domain.ProfileFull {
				return fmt.Errorf("--level must be %q or %q", domain.ProfileMinimal, domain.ProfileFull)
			}

			svc, summary, err := ctx.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, svc)
			if err != nil {
				return err
			}
			report, err := svc.Report(cmd.Context(), summary.ID, opts, profileLevel, title)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d observations, %d columns\n", report.Title, report.Info.Observations, report.Info.Columns)

			headers := []string{"Column", "Kind", "Count", "Missing", "Unique"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
			if profileLevel == domain.ProfileFull {
				headers = append(headers, "Mean", "Std", "Median")
				aligns = append(aligns, alignRight, alignRight, alignRight)
			}
			rows := make([][]string, 0, len(report.Columns))
			for _, col := range report.Columns {
				row := []string{col.Name, col.Kind, strconv.Itoa(col.Count), strconv.Itoa(col.Missing), strconv.Itoa(col.Unique)}
				if profileLevel == domain.ProfileFull && col.Numeric != nil {
					row = append(row, formatStat(col.Numeric.Mean), formatStat(col.Numeric.StdDev), formatStat(col.Numeric.Median))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			if htmlOut == "" {
				return nil
			}
			f, err := ctx.createOutput(htmlOut)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := svc.WriteReport(cmd.Context(), summary.ID, opts, profileLevel, title, f); err != nil {
				return err
			}
			fmt.Fprintf(out, "Report written to %s\n", htmlOut)
			return nil
		},
	}

	addPipelineFlags(cmd, &flags)
	cmd.Flags().StringVar(&level, "level", string(domain.ProfileMinimal), "Report level: minimal or full")
	cmd.Flags().StringVar(&title, "title", services.DefaultReportTitle, "Report title")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Also write the HTML report to this file")
	return cmd
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
