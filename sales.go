package rebalance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/etnz/rebalance/date"
)

// Sale records shares sold out of one lot at the current share price.
type Sale struct {
	Lot       AssetLot
	Shares    float64
	SalePrice float64

	currency string
	term     *HoldTerm
}

// Proceeds returns the sale value at the sale price.
func (s Sale) Proceeds() Money { return M(s.Shares*s.SalePrice, s.currency) }

// CostBasis returns what the sold shares were bought for. The second return
// is false when the lot's purchase price is unknown.
func (s Sale) CostBasis() (Money, bool) {
	if s.Lot.PurchasePrice == nil {
		return Money{}, false
	}
	return M(s.Shares**s.Lot.PurchasePrice, s.currency), true
}

// CapitalGain returns the realized gain (negative for a loss). The second
// return is false when the lot's purchase price is unknown.
func (s Sale) CapitalGain() (Money, bool) {
	basis, ok := s.CostBasis()
	if !ok {
		return Money{}, false
	}
	return s.Proceeds().Sub(basis), true
}

// Term returns the holding term of the sold lot at sale time. The second
// return is false when the lot's purchase date is unknown.
func (s Sale) Term() (HoldTerm, bool) {
	if s.term == nil {
		return Short, false
	}
	return *s.term, true
}

// ErrShortInventory reports that a position's eligible lots cannot cover its
// required sale. It indicates an inconsistency between the solved deltas and
// the lot inventory and should never occur on a consistent snapshot.
var ErrShortInventory = errors.New("eligible lots cannot cover the required sale")

// GenerateSales decomposes the position's net share delta into per-lot sales.
// Highest-purchase-price lots sell first, which minimizes the realized gain
// (or maximizes the realized loss) under a flat capital-gains rate; lots with
// an unknown purchase price sell last. Under every mode but SalesAll,
// short-term lots are not eligible.
//
// Positions with a non-negative delta are purchases and generate no sales.
func (p *Position) GenerateSales(allowed AllowedSales, on date.Date, currency string) ([]Sale, error) {
	delta := p.Delta()
	if delta >= 0 {
		return nil, nil
	}
	remaining := -delta

	var eligible []AssetLot
	for lot := range p.Account.LotsOf(p.Asset.Ticker) {
		term, known := lot.HoldTerm(on)
		if allowed == SalesAll || !known || term != Short {
			eligible = append(eligible, lot)
		}
	}

	// Highest purchase price first; unknown-price lots form a trailing
	// group. The sort is stable, so equal-price lots keep account order.
	sort.SliceStable(eligible, func(i, j int) bool {
		pi, pj := eligible[i].PurchasePrice, eligible[j].PurchasePrice
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi > *pj
	})

	var sales []Sale
	for _, lot := range eligible {
		if remaining <= 0 {
			break
		}
		if lot.Shares <= 0 {
			continue
		}
		count := min(remaining, lot.Shares)
		var term *HoldTerm
		if t, known := lot.HoldTerm(on); known {
			term = &t
		}
		sales = append(sales, Sale{
			Lot:       lot,
			Shares:    count,
			SalePrice: p.Asset.SharePrice,
			currency:  currency,
			term:      term,
		})
		remaining -= count
	}
	if remaining > 0 {
		return nil, fmt.Errorf("account %q asset %q: %v shares uncovered: %w",
			p.Account.Name, p.Asset.Ticker, remaining, ErrShortInventory)
	}
	return sales, nil
}
