package rebalance

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// The projection model follows the Black-Litterman reverse optimization: the
// market's capitalization weights and the covariance of historical annual
// returns imply a prior expected return per asset. That tax-exempt rate is
// then converted into an after-tax annualized rate per taxation regime.
//
// Reference: https://www.betterment.com/resources/asset-location-methodology/
// See "Deriving Account-Specific After-Tax Return".

const (
	// tradingDaysPerYear annualizes statistics over daily price series.
	tradingDaysPerYear = 252
	// riskFreeRate is the fixed risk-free rate of borrowing/lending.
	riskFreeRate = 0.02
	// DefaultProxyTicker is the broad-market proxy used to infer risk aversion.
	DefaultProxyTicker = "ACWI"
)

// Projector holds the per-asset projected return rates for one rebalance run.
type Projector struct {
	taxExempt    map[string]float64 // prior annual return rate per ticker
	meanDividend map[string]float64 // mean annual per-share dividend per ticker
	currentYear  int
}

// NewProjector derives the market-implied tax-exempt return rate for every
// non-cash asset in the portfolio, reading history from the market data
// provider. The proxy ticker's daily price series calibrates the
// market-implied risk aversion.
func NewProjector(md MarketData, proxyTicker string, assets []Asset, currentYear int) (*Projector, error) {
	proxy, err := md.History(proxyTicker)
	if err != nil {
		return nil, fmt.Errorf("cannot load market proxy %q: %w", proxyTicker, err)
	}
	riskAversion, err := marketImpliedRiskAversion(proxy)
	if err != nil {
		return nil, fmt.Errorf("market proxy %q: %w", proxyTicker, err)
	}

	annualReturns := make(map[string]map[int]float64, len(assets))
	meanDividend := make(map[string]float64, len(assets))
	caps := make(map[string]float64, len(assets))
	for _, asset := range assets {
		history, err := md.History(asset.Ticker)
		if err != nil {
			return nil, fmt.Errorf("cannot load history for %q: %w", asset.Ticker, err)
		}
		if err := history.Validate(asset.Ticker); err != nil {
			return nil, err
		}
		annualReturns[asset.Ticker] = history.AnnualReturns(currentYear)
		meanDividend[asset.Ticker] = history.MeanAnnualDividend(currentYear)
		caps[asset.Ticker] = asset.MarketCap()
	}

	taxExempt, err := marketImpliedPriorReturns(caps, riskAversion, annualReturns)
	if err != nil {
		return nil, err
	}
	return &Projector{taxExempt: taxExempt, meanDividend: meanDividend, currentYear: currentYear}, nil
}

// TaxExemptRate returns the market-implied prior annual return for the asset.
func (p *Projector) TaxExemptRate(asset Asset) (float64, error) {
	rate, ok := p.taxExempt[asset.Ticker]
	if !ok {
		return 0, fmt.Errorf("no projected return for %q", asset.Ticker)
	}
	return rate, nil
}

// Rate returns the after-tax annualized return rate of holding the asset in
// the given account, under the account's taxation regime and horizon.
func (p *Projector) Rate(account Account, asset Asset, cfg Config) (float64, error) {
	taxExempt, err := p.TaxExemptRate(asset)
	if err != nil {
		return 0, err
	}
	years := account.YearsUntilWithdrawal(p.currentYear)

	switch account.TaxationClass {
	case TaxExempt:
		return taxExempt, nil
	case TaxDeferred:
		taxRate := cfg.OrdinaryTaxRate
		if account.WithdrawalTaxRate != nil {
			taxRate = *account.WithdrawalTaxRate
		}
		return taxDeferredRate(asset, taxExempt, years, taxRate)
	case Taxable:
		return taxableRate(asset, taxExempt, years, p.meanDividend[asset.Ticker],
			cfg.OrdinaryTaxRate, cfg.PreferentialTaxRate)
	default:
		panic(fmt.Sprintf("unknown taxation class %d", account.TaxationClass))
	}
}

// RegimeRates projects the asset's annualized return under each taxation
// regime over a fixed horizon, using the portfolio's configured tax rates.
func (p *Projector) RegimeRates(asset Asset, years int, cfg Config) (taxExempt, taxDeferred, taxable float64, err error) {
	taxExempt, err = p.TaxExemptRate(asset)
	if err != nil {
		return 0, 0, 0, err
	}
	taxDeferred, err = taxDeferredRate(asset, taxExempt, years, cfg.OrdinaryTaxRate)
	if err != nil {
		return 0, 0, 0, err
	}
	taxable, err = taxableRate(asset, taxExempt, years, p.meanDividend[asset.Ticker],
		cfg.OrdinaryTaxRate, cfg.PreferentialTaxRate)
	if err != nil {
		return 0, 0, 0, err
	}
	return taxExempt, taxDeferred, taxable, nil
}

// marketImpliedRiskAversion calculates the market price of risk from the
// proxy's daily price series: excess annualized return over annualized
// variance. It needs at least two daily returns to estimate a variance.
func marketImpliedRiskAversion(proxy *SecurityHistory) (float64, error) {
	rets := proxy.DailyReturns()
	if len(rets) < 2 {
		return 0, fmt.Errorf("insufficient price history: %d daily returns, need at least 2", len(rets))
	}
	rate := stat.Mean(rets, nil) * tradingDaysPerYear
	variance := stat.Variance(rets, nil) * tradingDaysPerYear
	if variance == 0 {
		return 0, fmt.Errorf("proxy price series has zero variance")
	}
	return (rate - riskFreeRate) / variance, nil
}

// marketImpliedPriorReturns computes the prior estimate of returns implied by
// the market weights: Pi = delta * Sigma * w, plus the risk-free rate since
// Pi is an excess return.
func marketImpliedPriorReturns(caps map[string]float64, riskAversion float64, annualReturns map[string]map[int]float64) (map[string]float64, error) {
	tickers := make([]string, 0, len(caps))
	for ticker := range caps {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	n := len(tickers)
	if n == 0 {
		return nil, fmt.Errorf("no assets to project")
	}

	var totalCap float64
	for _, ticker := range tickers {
		totalCap += caps[ticker]
	}
	if totalCap == 0 {
		return nil, fmt.Errorf("total market capitalization is zero")
	}
	weights := mat.NewVecDense(n, nil)
	for i, ticker := range tickers {
		weights.SetVec(i, caps[ticker]/totalCap)
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov, err := pairwiseCovariance(annualReturns[tickers[i]], annualReturns[tickers[j]])
			if err != nil {
				return nil, fmt.Errorf("covariance of %q and %q: %w", tickers[i], tickers[j], err)
			}
			sigma.SetSym(i, j, cov)
		}
	}

	var pi mat.VecDense
	pi.MulVec(sigma, weights)

	rates := make(map[string]float64, n)
	for i, ticker := range tickers {
		rates[ticker] = riskAversion*pi.AtVec(i) + riskFreeRate
	}
	return rates, nil
}

// pairwiseCovariance computes the sample covariance of two annual return
// series over the calendar years they have in common.
func pairwiseCovariance(a, b map[int]float64) (float64, error) {
	var years []int
	for year := range a {
		if _, ok := b[year]; ok {
			years = append(years, year)
		}
	}
	if len(years) < 2 {
		return 0, fmt.Errorf("only %d overlapping years of annual returns, need at least 2", len(years))
	}
	sort.Ints(years)
	xs := make([]float64, len(years))
	ys := make([]float64, len(years))
	for i, year := range years {
		xs[i] = a[year]
		ys[i] = b[year]
	}
	return stat.Covariance(xs, ys, nil), nil
}

// taxDeferredRate converts a tax-exempt annual return rate into the
// annualized rate of the same asset held tax-deferred: principal grows
// untaxed for the horizon, then the whole growth is taxed once at the
// ordinary (or overridden) rate.
func taxDeferredRate(asset Asset, taxExemptRate float64, years int, taxRate float64) (float64, error) {
	return annualizedPostTaxRate(asset.SharePrice, taxExemptRate, years, taxRate)
}

// taxableRate converts a tax-exempt annual return rate into the annualized
// rate of the same asset held in a taxable account: the annual return is
// first reduced by dividend taxes (qualified dividends at the preferential
// rate, the rest at the ordinary rate), then the terminal capital gain is
// taxed at the preferential rate.
func taxableRate(asset Asset, taxExemptRate float64, years int, meanAnnualDividend, ordinaryRate, preferentialRate float64) (float64, error) {
	if asset.SharePrice == 0 {
		return 0, fmt.Errorf("asset %q has zero share price", asset.Ticker)
	}

	qualified := meanAnnualDividend * asset.QDI
	unqualified := meanAnnualDividend - qualified
	dividendTaxes := qualified*preferentialRate + unqualified*ordinaryRate

	// The tax-exempt rate comes from adjusted close prices, which already
	// factor dividends in, so this return includes dividend growth.
	annualReturn := asset.SharePrice * taxExemptRate
	postTaxAnnualReturn := annualReturn - dividendTaxes
	adjustedRate := postTaxAnnualReturn / asset.SharePrice

	return annualizedPostTaxRate(asset.SharePrice, adjustedRate, years, preferentialRate)
}

// annualizedPostTaxRate grows a principal at 'rate' for 'years', taxes the
// total growth once at 'taxRate', and re-annualizes the result.
func annualizedPostTaxRate(currentValue, rate float64, years int, taxRate float64) (float64, error) {
	if currentValue == 0 {
		return 0, fmt.Errorf("cannot annualize over a zero principal")
	}
	if years < 1 {
		return 0, fmt.Errorf("projection horizon must be at least one year, got %d", years)
	}
	projectedPreTax := currentValue * math.Pow(1+rate, float64(years))
	growth := projectedPreTax - currentValue
	taxes := growth * taxRate
	projectedPostTax := projectedPreTax - taxes
	return math.Pow(projectedPostTax/currentValue, 1/float64(years)) - 1, nil
}
