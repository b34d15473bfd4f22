package rebalance

import (
	"github.com/etnz/rebalance/date"
)

// AllocationRow is one allocation's target versus realized proportion after
// rebalancing.
type AllocationRow struct {
	Name   string
	Target Percent
	Actual Percent
	Drift  Percent
}

// Report is everything a reporting sink needs from one rebalance run: the
// solved positions, the tax-lot sales implementing the negative deltas, and
// the per-allocation drift. Formatting is the sink's concern.
type Report struct {
	On          date.Date
	Currency    string
	Tolerance   float64
	Positions   []*Position
	Sales       []Sale
	Allocations []AllocationRow
}

// NewReport derives the report of a solved rebalance: it decomposes every
// negative position delta into lot sales and measures the realized drift of
// every allocation at target share counts.
func NewReport(p *Portfolio, result *Result, allowed AllowedSales, on date.Date) (*Report, error) {
	report := &Report{
		On:        on,
		Currency:  p.Config.Currency,
		Tolerance: result.Tolerance,
		Positions: result.Positions,
	}

	for _, pos := range result.Positions {
		sales, err := pos.GenerateSales(allowed, on, p.Config.Currency)
		if err != nil {
			return nil, err
		}
		report.Sales = append(report.Sales, sales...)
	}

	totalValue, err := p.TotalValue()
	if err != nil {
		return nil, err
	}
	for _, alloc := range p.Allocations {
		var invested float64
		for _, pos := range result.Positions {
			if alloc.Matches(pos.Asset) {
				invested += pos.TargetInvestment()
			}
		}
		actual := invested / totalValue
		report.Allocations = append(report.Allocations, AllocationRow{
			Name:   alloc.Name,
			Target: P(alloc.Proportion),
			Actual: P(actual),
			Drift:  P(alloc.Proportion - actual),
		})
	}
	return report, nil
}

// TotalProceeds sums the proceeds of all sales.
func (r *Report) TotalProceeds() Money {
	total := M(0, r.Currency)
	for _, sale := range r.Sales {
		total = total.Add(sale.Proceeds())
	}
	return total
}

// TotalCapitalGain sums the known realized gains of all sales. The second
// return is false when any sale has an unknown cost basis; the sum then
// covers the known sales only.
func (r *Report) TotalCapitalGain() (Money, bool) {
	total := M(0, r.Currency)
	complete := true
	for _, sale := range r.Sales {
		gain, ok := sale.CapitalGain()
		if !ok {
			complete = false
			continue
		}
		total = total.Add(gain)
	}
	return total, complete
}
