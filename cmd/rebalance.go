package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

// rebalanceCmd holds the flags for the 'rebalance' subcommand.
type rebalanceCmd struct {
	sales     string
	proxy     string
	timeLimit time.Duration
}

func (*rebalanceCmd) Name() string     { return "rebalance" }
func (*rebalanceCmd) Synopsis() string { return "computes the optimal after-tax reallocation" }
func (*rebalanceCmd) Usage() string {
	return `rebal rebalance [-sales <mode>] [-proxy <ticker>] [-time-limit <duration>]

  Computes target share counts per account and asset maximizing the projected
  after-tax return, and the tax-lot sales implementing them.
`
}

func (c *rebalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sales, "sales", rebalance.SalesNone.String(), "Allowed sales mode (none, tax-free, long-term, all)")
	f.StringVar(&c.proxy, "proxy", rebalance.DefaultProxyTicker, "Broad market proxy ticker for the return model")
	f.DurationVar(&c.timeLimit, "time-limit", 0, "Maximum wall-clock time per solver call (0 for unbounded)")
}

func (c *rebalanceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	allowed, err := rebalance.ParseAllowedSales(c.sales)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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

	today := date.Today()
	result, err := rebalance.Rebalance(portfolio, md, rebalance.Options{
		AllowedSales: allowed,
		ProxyTicker:  c.proxy,
		TimeLimit:    c.timeLimit,
		Today:        today,
	})
	if errors.Is(err, rebalance.ErrCannotRebalance) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing rebalance: %v\n", err)
		return subcommands.ExitFailure
	}

	report, err := rebalance.NewReport(portfolio, result, allowed, today)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building report: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
