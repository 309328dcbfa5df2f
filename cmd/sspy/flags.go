package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sspyviz/internal/services"
)

// pipelineFlags are the pipeline options shared by every command
type pipelineFlags struct {
	columns       []string
	where         []string
	dropMissing   bool
	noValidate    bool
	noISO         bool
	paqMin        float64
	paqMax        float64
	paqAliases    map[string]string
	idColumn      string
	rejectUniform bool
}

func addPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.columns, "columns", nil, "Keep only these columns, in this order")
	flags.StringArrayVar(&f.where, "where", nil, "Filter condition such as \"LocationID == 'CamdenTown'\" (repeatable, max 5)")
	flags.BoolVar(&f.dropMissing, "drop-missing", false, "Drop rows with any missing value")
	flags.BoolVar(&f.noValidate, "no-validate", false, "Skip PAQ validation")
	flags.BoolVar(&f.noISO, "no-iso", false, "Skip ISO coordinate derivation")
	flags.Float64Var(&f.paqMin, "paq-min", 0, "Lowest valid PAQ response (default from config)")
	flags.Float64Var(&f.paqMax, "paq-max", 0, "Highest valid PAQ response (default from config)")
	flags.StringToStringVar(&f.paqAliases, "paq-aliases", nil, "PAQ columns by attribute, e.g. pleasant=PAQ1,calm=PAQ8")
	flags.StringVar(&f.idColumn, "id-column", "", "Reject rows whose value in this column repeats")
	flags.BoolVar(&f.rejectUniform, "reject-uniform", false, "Reject straight-lined PAQ responses")
}

// options overlays the flags that were set on the service defaults
func (f *pipelineFlags) options(cmd *cobra.Command, svc *services.DatasetService) (services.ProcessOptions, error) {
	opts := svc.DefaultOptions()
	opts.Columns = f.columns
	opts.Conditions = f.where
	opts.DropMissing = f.dropMissing
	opts.Validate = !f.noValidate
	opts.CalculateISO = !f.noISO

	flags := cmd.Flags()
	if flags.Changed("paq-min") {
		opts.Range.Min = f.paqMin
	}
	if flags.Changed("paq-max") {
		opts.Range.Max = f.paqMax
	}
	if flags.Changed("paq-aliases") {
		aliases, err := opts.Aliases.Override(f.paqAliases)
		if err != nil {
			return opts, fmt.Errorf("--paq-aliases: %w", err)
		}
		opts.Aliases = aliases
	}
	if flags.Changed("id-column") {
		opts.IDColumn = f.idColumn
	}
	if flags.Changed("reject-uniform") {
		opts.RejectUniform = f.rejectUniform
	}
	return opts, nil
}
