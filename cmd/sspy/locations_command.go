package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLocationsCommand(ctx *commandContext) *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "locations FILE",
		Short: "Count processed responses per location",
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
			counts, err := svc.Locations(cmd.Context(), summary.ID, opts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(counts)+1)
			total := 0
			for _, c := range counts {
				rows = append(rows, []string{c.LocationID, strconv.Itoa(c.Count)})
				total += c.Count
			}
			rows = append(rows, []string{"Total", strconv.Itoa(total)})
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"LocationID", "Responses"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	addPipelineFlags(cmd, &flags)
	return cmd
}
