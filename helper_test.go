package rebalance

import (
	"fmt"

	"github.com/etnz/rebalance/date"
)

// memMarket is an in-memory MarketData for tests.
type memMarket map[string]*SecurityHistory

func (m memMarket) History(ticker string) (*SecurityHistory, error) {
	h, ok := m[ticker]
	if !ok {
		return nil, fmt.Errorf("no history for %q", ticker)
	}
	return h, nil
}

// newHistory builds a SecurityHistory out of (date, price) pairs.
func newHistory(points ...any) *SecurityHistory {
	h := &SecurityHistory{Prices: &date.History[float64]{}, Dividends: &date.History[float64]{}}
	for i := 0; i < len(points); i += 2 {
		h.Prices.Append(date.MustParse(points[i].(string)), points[i+1].(float64))
	}
	return h
}

// withDividend adds a dividend payment to a history.
func (h *SecurityHistory) withDividend(on string, amount float64) *SecurityHistory {
	h.Dividends.AppendAdd(date.MustParse(on), amount)
	return h
}

func fptr(v float64) *float64 { return &v }

func dptr(s string) *date.Date {
	d := date.MustParse(s)
	return &d
}
