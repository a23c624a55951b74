package main

import (
	"github.com/spf13/cobra"

	"kpr/internal/loan"
)

func newAffordCmd(opts *rootOptions) *cobra.Command {
	var (
		income, expenses, downPayment string
		jobType                       string
		age, tenor, rateID            int
	)
	cmd := &cobra.Command{
		Use:     "afford",
		Short:   "Estimate the highest property price an income can carry",
		Example: "  kprctl afford --income 20000000 --expenses 5000000 --tenor 20 --rate 1",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := loan.AffordabilityInput{JobType: jobType, Age: age, TenorYears: tenor, SelectedRateID: rateID}
			var err error
			if in.MonthlyIncome, err = decimalFlag("income", income); err != nil {
				return err
			}
			if in.MonthlyExpenses, err = decimalFlag("expenses", expenses); err != nil {
				return err
			}
			if in.DownPayment, err = decimalFlag("dp", downPayment); err != nil {
				return err
			}

			calc, err := opts.calculator()
			if err != nil {
				return err
			}
			result, err := calc.Affordability(in)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&income, "income", "", "Monthly gross income in rupiah")
	cmd.Flags().StringVar(&expenses, "expenses", "", "Monthly expenses in rupiah")
	cmd.Flags().StringVar(&downPayment, "dp", "", "Planned down payment in rupiah")
	cmd.Flags().StringVar(&jobType, "job", "karyawan", "Job type: karyawan, wiraswasta or profesional")
	cmd.Flags().IntVar(&age, "age", 30, "Applicant age")
	cmd.Flags().IntVar(&tenor, "tenor", 0, "Tenor in years")
	cmd.Flags().IntVar(&rateID, "rate", 0, "Rate id from the catalog")
	_ = cmd.MarkFlagRequired("income")
	_ = cmd.MarkFlagRequired("tenor")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}
