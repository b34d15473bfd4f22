package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

// returnsCmd holds the flags for the 'returns' subcommand.
type returnsCmd struct {
	years int
	proxy string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "projected per-asset returns under each taxation regime" }
func (*returnsCmd) Usage() string {
	return `rebal returns [-years <n>] [-proxy <ticker>]

  Estimates each asset's market-implied annual return and its after-tax
  annualized equivalents in tax-exempt, tax-deferred and taxable accounts.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.years, "years", 30, "Projection horizon in years")
	f.StringVar(&c.proxy, "proxy", rebalance.DefaultProxyTicker, "Broad market proxy ticker for the return model")
}

func (c *returnsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.years < 1 {
		fmt.Fprintln(os.Stderr, "Error: -years must be at least 1")
		return subcommands.ExitUsageError
	}

	portfolio, err := decodePortfolio()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md, err := rebalance.NewTiingo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	projector, err := rebalance.NewProjector(md, c.proxy, portfolio.NonCashAssets(), date.Today().Year())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error projecting returns: %v\n", err)
		return subcommands.ExitFailure
	}

	var rows []renderer.Rates
	for _, asset := range portfolio.NonCashAssets() {
		taxExempt, taxDeferred, taxable, err := projector.RegimeRates(asset, c.years, portfolio.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error projecting returns for %q: %v\n", asset.Ticker, err)
			return subcommands.ExitFailure
		}
		rows = append(rows, renderer.Rates{
			Ticker:      asset.Ticker,
			TaxExempt:   rebalance.P(taxExempt),
			TaxDeferred: rebalance.P(taxDeferred),
			Taxable:     rebalance.P(taxable),
		})
	}

	fmt.Println(renderer.RatesMarkdown(rows, c.years))
	return subcommands.ExitSuccess
}
