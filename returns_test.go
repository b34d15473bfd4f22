package rebalance

import (
	"math"
	"strings"
	"testing"
)

func TestAnnualizedPostTaxRate_ZeroTaxRoundTrip(t *testing.T) {
	// With a zero tax rate the conversion must return the input rate.
	got, err := annualizedPostTaxRate(100, 0.07, 10, 0)
	if err != nil {
		t.Fatalf("annualizedPostTaxRate() error = %v", err)
	}
	if math.Abs(got-0.07) > 1e-12 {
		t.Errorf("annualizedPostTaxRate(tax=0) = %v, want 0.07", got)
	}
}

func TestAnnualizedPostTaxRate_Guards(t *testing.T) {
	if _, err := annualizedPostTaxRate(0, 0.07, 10, 0.2); err == nil {
		t.Error("annualizedPostTaxRate() with zero principal should fail")
	}
	if _, err := annualizedPostTaxRate(100, 0.07, 0, 0.2); err == nil {
		t.Error("annualizedPostTaxRate() with zero horizon should fail")
	}
}

func TestTaxDeferredRate_MatchesClosedForm(t *testing.T) {
	// Pre-tax 7% over 10 years with a 24% terminal tax:
	// ((1.07^10)*0.76 + 0.24)^(1/10) - 1
	want := math.Pow(math.Pow(1.07, 10)*0.76+0.24, 1.0/10) - 1

	got, err := taxDeferredRate(Asset{Ticker: "VTI", SharePrice: 100}, 0.07, 10, 0.24)
	if err != nil {
		t.Fatalf("taxDeferredRate() error = %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("taxDeferredRate() = %v, want %v", got, want)
	}
}

func TestTaxableRate_DividendDrag(t *testing.T) {
	// Price 100, rate 5%, mean dividend 2 with half qualified:
	// dividend taxes = 1*0.15 + 1*0.30 = 0.45
	// net annual rate = (5 - 0.45)/100 = 0.0455
	// one year at a 15% terminal tax: 0.0455 * 0.85 = 0.038675
	asset := Asset{Ticker: "VTI", SharePrice: 100, QDI: 0.5}
	got, err := taxableRate(asset, 0.05, 1, 2.0, 0.30, 0.15)
	if err != nil {
		t.Fatalf("taxableRate() error = %v", err)
	}
	if math.Abs(got-0.038675) > 1e-12 {
		t.Errorf("taxableRate() = %v, want 0.038675", got)
	}
}

func TestTaxableRate_ZeroPriceFails(t *testing.T) {
	if _, err := taxableRate(Asset{Ticker: "X"}, 0.05, 1, 0, 0.3, 0.15); err == nil {
		t.Error("taxableRate() with zero share price should fail")
	}
}

// proxyHistory has daily returns of exactly 1%, 2% and 3%.
func proxyHistory() *SecurityHistory {
	return newHistory(
		"2024-01-02", 100.0,
		"2024-01-03", 101.0,
		"2024-01-04", 103.02,
		"2024-01-05", 106.1106,
	)
}

func TestMarketImpliedRiskAversion(t *testing.T) {
	// mean 0.02, sample variance 0.0001, annualized at 252:
	// (0.02*252 - 0.02) / (0.0001*252)
	want := (0.02*252 - riskFreeRate) / (0.0001 * 252)

	got, err := marketImpliedRiskAversion(proxyHistory())
	if err != nil {
		t.Fatalf("marketImpliedRiskAversion() error = %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("marketImpliedRiskAversion() = %v, want %v", got, want)
	}
}

func TestMarketImpliedRiskAversion_InsufficientHistory(t *testing.T) {
	h := newHistory("2024-01-02", 100.0, "2024-01-03", 101.0)
	if _, err := marketImpliedRiskAversion(h); err == nil {
		t.Error("marketImpliedRiskAversion() with a single return should fail")
	}
}

func TestNewProjector_SingleAsset(t *testing.T) {
	// Annual returns 10% then 20%: mean 0.15, sample variance 0.005.
	// With one asset the weight is 1, so the prior is
	// riskAversion*0.005 + riskFree.
	md := memMarket{
		"ACWI": proxyHistory(),
		"VTI": newHistory(
			"2021-12-30", 100.0,
			"2022-12-30", 110.0,
			"2023-12-29", 132.0,
		),
	}
	asset := Asset{Ticker: "VTI", Class: Equity, SharePrice: 100, SharesOutstanding: 1e6}

	projector, err := NewProjector(md, "ACWI", []Asset{asset}, 2025)
	if err != nil {
		t.Fatalf("NewProjector() error = %v", err)
	}

	delta := (0.02*252 - riskFreeRate) / (0.0001 * 252)
	want := delta*0.005 + riskFreeRate
	got, err := projector.TaxExemptRate(asset)
	if err != nil {
		t.Fatalf("TaxExemptRate() error = %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("TaxExemptRate() = %v, want %v", got, want)
	}
}

func TestNewProjector_FailsOnShortOverlap(t *testing.T) {
	md := memMarket{
		"ACWI": proxyHistory(),
		"VTI": newHistory(
			"2022-12-30", 100.0,
			"2023-12-29", 110.0,
		),
	}
	asset := Asset{Ticker: "VTI", Class: Equity, SharePrice: 100, SharesOutstanding: 1e6}

	_, err := NewProjector(md, "ACWI", []Asset{asset}, 2025)
	if err == nil || !strings.Contains(err.Error(), "overlapping years") {
		t.Errorf("NewProjector() error = %v, want overlapping years failure", err)
	}
}

func TestProjector_RateSelectsRegime(t *testing.T) {
	projector := &Projector{
		taxExempt:    map[string]float64{"VTI": 0.05},
		meanDividend: map[string]float64{"VTI": 0},
		currentYear:  2025,
	}
	asset := Asset{Ticker: "VTI", Class: Equity, SharePrice: 100}
	cfg := Config{OrdinaryTaxRate: 0.24, PreferentialTaxRate: 0.15}

	exempt := Account{Name: "Roth", TaxationClass: TaxExempt, WithdrawalYear: 2035}
	rate, err := projector.Rate(exempt, asset, cfg)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if rate != 0.05 {
		t.Errorf("Rate(tax-exempt) = %v, want the unchanged 0.05", rate)
	}

	deferred := Account{Name: "IRA", TaxationClass: TaxDeferred, WithdrawalYear: 2035}
	rate, err = projector.Rate(deferred, asset, cfg)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	want := math.Pow(math.Pow(1.05, 10)*0.76+0.24, 1.0/10) - 1
	if math.Abs(rate-want) > 1e-12 {
		t.Errorf("Rate(tax-deferred) = %v, want %v", rate, want)
	}

	// A zero-rate override must leave the rate untouched.
	deferred.WithdrawalTaxRate = fptr(0)
	rate, err = projector.Rate(deferred, asset, cfg)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if math.Abs(rate-0.05) > 1e-12 {
		t.Errorf("Rate(tax-deferred, zero override) = %v, want 0.05", rate)
	}

	taxable := Account{Name: "Brokerage", TaxationClass: Taxable, WithdrawalYear: 2035}
	rate, err = projector.Rate(taxable, asset, cfg)
	if err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	// No dividends: only the terminal preferential tax applies.
	want = math.Pow(math.Pow(1.05, 10)*0.85+0.15, 1.0/10) - 1
	if math.Abs(rate-want) > 1e-12 {
		t.Errorf("Rate(taxable) = %v, want %v", rate, want)
	}
}
