package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
)

var testToday = date.New(2025, time.June, 1)

func fptr(v float64) *float64 { return &v }

func classOf(c rebalance.AssetClass) *rebalance.AssetClass { return &c }

// solvedPortfolio returns a rebalanced portfolio: four of ten VTI shares sold,
// twenty-eight BND shares bought out of the cash balance.
func solvedPortfolio(t *testing.T) (*rebalance.Portfolio, *rebalance.Report) {
	t.Helper()
	purchased := date.New(2020, time.March, 1)
	p := &rebalance.Portfolio{
		Allocations: []rebalance.Allocation{
			{Name: "Stocks", Proportion: 0.3, Class: classOf(rebalance.Equity)},
			{Name: "Bonds", Proportion: 0.7, Class: classOf(rebalance.FixedIncome)},
		},
		Assets: []rebalance.Asset{
			{Ticker: "VTI", Class: rebalance.Equity, SharePrice: 100, SharesOutstanding: 1e6},
			{Ticker: "BND", Class: rebalance.FixedIncome, SharePrice: 50, SharesOutstanding: 1e6},
		},
		Accounts: []rebalance.Account{
			{Name: "Brokerage", TaxationClass: rebalance.Taxable, WithdrawalYear: 2035, CashBalance: 1000,
				Lots: []rebalance.AssetLot{{Ticker: "VTI", Shares: 10, PurchaseDate: &purchased, PurchasePrice: fptr(80)}}},
		},
		Config: rebalance.Config{DriftLimit: 0.5, OrdinaryTaxRate: 0.3, PreferentialTaxRate: 0.15, Currency: "USD"},
	}
	result := &rebalance.Result{
		Positions: []*rebalance.Position{
			{Account: &p.Accounts[0], Asset: p.Assets[0], Current: 10, Target: 6},
			{Account: &p.Accounts[0], Asset: p.Assets[1], Current: 0, Target: 28},
		},
		Tolerance: 0.0001,
		Attempts:  1,
	}
	report, err := rebalance.NewReport(p, result, rebalance.SalesAll, testToday)
	if err != nil {
		t.Fatalf("NewReport() error = %v", err)
	}
	return p, report
}

func TestReportMarkdown(t *testing.T) {
	_, report := solvedPortfolio(t)
	md := ReportMarkdown(report)

	for _, want := range []string{
		"# Rebalance Report on 2025-06-01",
		"| Brokerage | VTI | 10 | 6 | -4 |",
		"| Brokerage | BND | 0 | 28 | +28 |",
		"| VTI | 4 | long | $320.00 | $400.00 | +$80.00 |",
		"| **Total** | | | | **$400.00** | **+$80.00** |",
		"| Stocks | 30.00% | 30.00% | - |",
		"| Bonds | 70.00% | 70.00% | - |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report misses %q:\n%s", want, md)
		}
	}
}

func TestReportMarkdown_NoSales(t *testing.T) {
	_, report := solvedPortfolio(t)
	report.Sales = nil
	md := ReportMarkdown(report)
	if !strings.Contains(md, "No sales required.") {
		t.Errorf("report misses the no-sales notice:\n%s", md)
	}
}

func TestRatesMarkdown(t *testing.T) {
	rows := []Rates{
		{Ticker: "VTI", TaxExempt: rebalance.P(0.07), TaxDeferred: rebalance.P(0.061), Taxable: rebalance.P(0.058)},
	}
	md := RatesMarkdown(rows, 30)

	for _, want := range []string{
		"over 30 years",
		"| VTI | 7.00% | 6.10% | 5.80% |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("rates table misses %q:\n%s", want, md)
		}
	}
}

func TestPortfolioMarkdown(t *testing.T) {
	p, _ := solvedPortfolio(t)
	md := PortfolioMarkdown(p)

	for _, want := range []string{
		"Drift limit 50.00%",
		"| Stocks | 30.00% | equity | * |",
		"| VTI | equity |  | $100.00 | 0.00% |",
		"### Brokerage (taxable, withdrawal 2035)",
		"Cash balance: $1,000.00",
		"| VTI | 10 | 2020-03-01 | $80.00 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("portfolio view misses %q:\n%s", want, md)
		}
	}
}
