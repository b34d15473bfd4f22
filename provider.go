package rebalance

import (
	"fmt"
	"sort"

	"github.com/etnz/rebalance/date"
)

// MarketData supplies per-security price and dividend history. Implementations
// own caching; the rebalancing core performs plain blocking reads.
type MarketData interface {
	// History returns the security's full available daily history,
	// chronologically ordered.
	History(ticker string) (*SecurityHistory, error)
}

// SecurityHistory is the chronological daily history of one security.
type SecurityHistory struct {
	Prices    *date.History[float64] // adjusted close per trading day
	Dividends *date.History[float64] // cash dividend per share, on payment days
}

// DailyReturns returns the day-over-day relative price changes.
func (h *SecurityHistory) DailyReturns() []float64 {
	var rets []float64
	previous := 0.0
	first := true
	for _, price := range h.Prices.Values() {
		if !first && previous != 0 {
			rets = append(rets, price/previous-1)
		}
		previous = price
		first = false
	}
	return rets
}

// AnnualReturns computes the year-over-year return per full prior calendar
// year: the relative change between consecutive year-end adjusted closes,
// the current (partial) year excluded. Years without any record carry the
// previous year-end price forward.
func (h *SecurityHistory) AnnualReturns(currentYear int) map[int]float64 {
	closes := h.Prices.LastPerYear()

	var years []int
	for year := range closes {
		if year < currentYear {
			years = append(years, year)
		}
	}
	if len(years) == 0 {
		return nil
	}
	sort.Ints(years)

	returns := make(map[int]float64)
	previous := closes[years[0]]
	for year := years[0] + 1; year <= years[len(years)-1]; year++ {
		close, ok := closes[year]
		if !ok {
			close = previous // carry forward, a gap year has zero return
		}
		if previous != 0 {
			returns[year] = close/previous - 1
		}
		previous = close
	}
	return returns
}

// MeanAnnualDividend averages the per-share cash dividends paid per full
// prior calendar year. Prior years with price records but no dividend count
// as zero-dividend years.
func (h *SecurityHistory) MeanAnnualDividend(currentYear int) float64 {
	dividends := h.Dividends.SumPerYear()
	var sum float64
	var n int
	for year := range h.Prices.LastPerYear() {
		if year >= currentYear {
			continue
		}
		sum += dividends[year]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Validate checks the history is usable at all.
func (h *SecurityHistory) Validate(ticker string) error {
	if h.Prices.Len() == 0 {
		return fmt.Errorf("no price history for %q", ticker)
	}
	return nil
}
