package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
)

// Rates is the projected annualized return of one asset under each taxation
// regime, over a common horizon.
type Rates struct {
	Ticker      string
	TaxExempt   rebalance.Percent
	TaxDeferred rebalance.Percent
	Taxable     rebalance.Percent
}

// RatesMarkdown renders the per-asset projected return table.
func RatesMarkdown(rows []Rates, years int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Projected Annualized Returns over %d years\n\n", years)
	fmt.Fprintln(&b, "| Asset | Tax-exempt | Tax-deferred | Taxable |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			row.Ticker,
			row.TaxExempt.String(),
			row.TaxDeferred.String(),
			row.Taxable.String(),
		)
	}
	return b.String()
}
