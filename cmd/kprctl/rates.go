package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newRatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rates [id]",
		Short: "List the interest rate catalog, or show one rate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return opts.print(cmd.OutOrStdout(), calc.ListRates())
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			entry, err := calc.GetRate(id)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), entry.Spec)
		},
	}
}
