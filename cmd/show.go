package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance/renderer"
	"github.com/google/subcommands"
)

// showCmd holds the flags for the 'show' subcommand.
type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "displays the validated portfolio snapshot" }
func (*showCmd) Usage() string {
	return `rebal show

  Loads, validates and displays the portfolio snapshot: configuration,
  allocations, assets, and accounts with their lots.
`
}

func (*showCmd) SetFlags(f *flag.FlagSet) {}

func (*showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	portfolio, err := decodePortfolio()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(renderer.PortfolioMarkdown(portfolio))
	return subcommands.ExitSuccess
}
