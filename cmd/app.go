// Package cmd implements the CLI application to rebalance a portfolio.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&showCmd{}, "portfolio")
	c.Register(&returnsCmd{}, "projection")
	c.Register(&rebalanceCmd{}, "rebalancing")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var portfolioFile = flag.String("portfolio-file", "portfolio.json", "Path to the portfolio snapshot file (JSON format)")

// decodePortfolio loads and validates the portfolio snapshot from the app
// default portfolio file.
func decodePortfolio() (*rebalance.Portfolio, error) {
	f, err := os.Open(*portfolioFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open portfolio file %q: %w", *portfolioFile, err)
	}
	defer f.Close()
	return rebalance.DecodePortfolio(f, date.Today())
}
