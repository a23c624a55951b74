package main

import (
	"github.com/spf13/cobra"

	"kpr/internal/services"
)

type loanFlags struct {
	price       string
	downPayment string
	tenor       int
	rateID      int
}

func (f *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.price, "price", "", "Property price in rupiah")
	cmd.Flags().StringVar(&f.downPayment, "dp", "", "Down payment in rupiah")
	cmd.Flags().IntVar(&f.tenor, "tenor", 0, "Tenor in years")
	cmd.Flags().IntVar(&f.rateID, "rate", 0, "Rate id from the catalog")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("tenor")
	_ = cmd.MarkFlagRequired("rate")
}

func (f *loanFlags) request() (services.SimulationRequest, error) {
	price, err := decimalFlag("price", f.price)
	if err != nil {
		return services.SimulationRequest{}, err
	}
	dp, err := decimalFlag("dp", f.downPayment)
	if err != nil {
		return services.SimulationRequest{}, err
	}
	return services.SimulationRequest{
		PropertyPrice: price,
		DownPayment:   dp,
		TenorYears:    f.tenor,
		RateID:        f.rateID,
	}, nil
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	flags := &loanFlags{}
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Compute the monthly installment for a loan",
		Example: "  kprctl simulate --price 500000000 --dp 100000000 --tenor 15 --rate 1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			result, err := calc.Simulate(req)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	return cmd
}
