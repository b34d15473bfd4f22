// Package renderer builds markdown reports out of rebalancing results.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
)

// ReportMarkdown renders a full rebalance run: positions, lot sales, and
// allocation drift.
func ReportMarkdown(report *rebalance.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Rebalance Report on %s\n\n", report.On.String())
	fmt.Fprintf(&b, "Solved at drift tolerance %v\n\n", report.Tolerance)

	fmt.Fprint(&b, "## Positions\n\n")
	fmt.Fprintln(&b, "| Account | Asset | Current | Target | Delta |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")
	for _, pos := range report.Positions {
		fmt.Fprintf(&b, "| %s | %s | %v | %d | %+v |\n",
			pos.Account.Name,
			pos.Asset.Ticker,
			pos.Current,
			pos.Target,
			pos.Delta(),
		)
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Sales\n\n")
	if len(report.Sales) == 0 {
		fmt.Fprint(&b, "No sales required.\n\n")
	} else {
		fmt.Fprintln(&b, "| Asset | Shares | Term | Cost Basis | Proceeds | Gain |")
		fmt.Fprintln(&b, "|:---|---:|:---|---:|---:|---:|")
		for _, sale := range report.Sales {
			fmt.Fprintf(&b, "| %s | %v | %s | %s | %s | %s |\n",
				sale.Lot.Ticker,
				sale.Shares,
				termLabel(sale),
				moneyLabel(sale.CostBasis()),
				sale.Proceeds().String(),
				gainLabel(sale),
			)
		}
		gain, complete := report.TotalCapitalGain()
		fmt.Fprintf(&b, "| **Total** | | | | **%s** | **%s** |\n",
			report.TotalProceeds().String(), gain.SignedString())
		if !complete {
			fmt.Fprint(&b, "\nSome lots have no recorded purchase price; the total gain covers the known lots only.\n")
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprint(&b, "## Allocations\n\n")
	fmt.Fprintln(&b, "| Allocation | Target | Actual | Drift |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|")
	for _, row := range report.Allocations {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			row.Name,
			row.Target.String(),
			row.Actual.String(),
			row.Drift.SignedString(),
		)
	}

	return b.String()
}

func termLabel(sale rebalance.Sale) string {
	term, ok := sale.Term()
	if !ok {
		return "?"
	}
	return term.String()
}

func moneyLabel(m rebalance.Money, ok bool) string {
	if !ok {
		return "?"
	}
	return m.String()
}

func gainLabel(sale rebalance.Sale) string {
	gain, ok := sale.CapitalGain()
	if !ok {
		return "?"
	}
	return gain.SignedString()
}
