// Command kprctl runs the mortgage calculators from the terminal against the
// same rate catalog the API serves.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kpr/internal/loan"
	"kpr/internal/logger"
	"kpr/internal/rates"
	"kpr/internal/services"
)

type rootOptions struct {
	catalogPath string
	output      string
	dtiRatio    float64
}

func main() {
	logger.Init("production")
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "kprctl",
		Short:        "Mortgage (KPR) calculators on the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", os.Getenv("RATE_CATALOG_PATH"), "Rate catalog YAML file (default: built-in catalog)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "yaml", "Output format: yaml or json")
	root.PersistentFlags().Float64Var(&opts.dtiRatio, "dti", loan.DefaultDebtToIncomeRatio, "Debt-to-income ratio used by the affordability estimate")

	root.AddCommand(
		newRatesCmd(opts),
		newSimulateCmd(opts),
		newAffordCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// calculator builds the same service the API uses over the selected catalog.
func (o *rootOptions) calculator() (services.CalculatorServicer, error) {
	entries, err := rates.Load(o.catalogPath)
	if err != nil {
		return nil, err
	}
	if o.dtiRatio <= 0 || o.dtiRatio > 1 {
		return nil, fmt.Errorf("--dti must be in (0, 1], got %v", o.dtiRatio)
	}
	policy := loan.AffordabilityPolicy{DebtToIncomeRatio: decimal.NewFromFloat(o.dtiRatio)}
	return services.NewCalculatorService(rates.NewRegistry(entries), policy), nil
}

func (o *rootOptions) print(w io.Writer, v any) error {
	switch o.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// round-trip through JSON so decimals and json tags shape the YAML
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown output format %q (use yaml or json)", o.output)
	}
}

// decimalFlag parses a money flag; empty means zero.
func decimalFlag(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", name, raw)
	}
	return d, nil
}
