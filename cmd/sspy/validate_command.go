package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"sspyviz/internal/services"
	"sspyviz/pkg/contracts/domain"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags
	var excludedOut string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate PAQ responses and report excluded records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, summary, err := ctx.loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options(cmd, svc)
			if err != nil {
				return err
			}
			result, err := svc.Process(cmd.Context(), summary.ID, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Input records", strconv.Itoa(summary.Observations)},
				{"Valid records", strconv.Itoa(result.Info.Observations)},
				{"Excluded records", strconv.Itoa(result.Excluded.Len())},
			}
			reasons := make([]domain.ExclusionReason, 0, len(result.ReasonCounts))
			for reason := range result.ReasonCounts {
				reasons = append(reasons, reason)
			}
			sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
			for _, reason := range reasons {
				rows = append(rows, []string{"  " + string(reason), strconv.Itoa(result.ReasonCounts[reason])})
			}
			fmt.Fprintln(out, renderTable([]string{"Validation", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

			if excludedOut == "" {
				return nil
			}
			f, err := ctx.createOutput(excludedOut)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := svc.Export(cmd.Context(), summary.ID, opts, services.ExportCSV, true, f); err != nil {
				return err
			}
			fmt.Fprintf(out, "Excluded records written to %s\n", excludedOut)
			return nil
		},
	}

	addPipelineFlags(cmd, &flags)
	cmd.Flags().StringVar(&excludedOut, "excluded-out", "", "Write the excluded records with their reasons to this CSV file")
	return cmd
}
