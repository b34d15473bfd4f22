package rebalance

import (
	"fmt"
	"iter"
	"strings"

	"github.com/etnz/rebalance/date"
)

// TaxationClass determines which after-tax return regime applies to an account.
type TaxationClass int

const (
	Taxable TaxationClass = iota
	TaxDeferred
	TaxExempt
)

func (c TaxationClass) String() string {
	switch c {
	case Taxable:
		return "taxable"
	case TaxDeferred:
		return "tax-deferred"
	case TaxExempt:
		return "tax-exempt"
	default:
		panic(fmt.Sprintf("unknown taxation class %d", c))
	}
}

func ParseTaxationClass(s string) (TaxationClass, error) {
	switch strings.ToLower(s) {
	case "taxable":
		return Taxable, nil
	case "tax-deferred", "taxdeferred":
		return TaxDeferred, nil
	case "tax-exempt", "taxexempt":
		return TaxExempt, nil
	default:
		return Taxable, fmt.Errorf("unknown taxation class %q", s)
	}
}

// HoldTerm is the capital-gains holding term of a lot.
type HoldTerm int

const (
	Short HoldTerm = iota // held 365 days or less
	Long                  // held more than 365 days
)

func (h HoldTerm) String() string {
	switch h {
	case Short:
		return "short"
	case Long:
		return "long"
	default:
		panic(fmt.Sprintf("unknown hold term %d", h))
	}
}

// longTermDays is the holding period beyond which a lot qualifies for
// long-term capital-gains treatment.
const longTermDays = 365

// AssetLot is a single purchase batch of one asset, carrying its own
// purchase date and price for capital-gains computations.
type AssetLot struct {
	Ticker        string
	Shares        float64
	PurchaseDate  *date.Date // nil when the purchase date is unknown
	PurchasePrice *float64   // nil when the purchase price is unknown
}

// DaysHeld returns the number of days the lot has been held as of 'on'.
// The second return is false when the purchase date is unknown.
func (l AssetLot) DaysHeld(on date.Date) (int, bool) {
	if l.PurchaseDate == nil {
		return 0, false
	}
	return l.PurchaseDate.DaysUntil(on), true
}

// HoldTerm returns the lot's holding term as of 'on'.
// The second return is false when the purchase date is unknown.
func (l AssetLot) HoldTerm(on date.Date) (HoldTerm, bool) {
	days, ok := l.DaysHeld(on)
	if !ok {
		return Short, false
	}
	if days > longTermDays {
		return Long, true
	}
	return Short, true
}

// Account is a container of cash and asset lots under a single taxation class.
// Its identity is the name.
type Account struct {
	Name              string
	TaxationClass     TaxationClass
	WithdrawalYear    int
	WithdrawalTaxRate *float64 // account-specific override of the ordinary rate, nil to use the default
	CashBalance       float64
	Lots              []AssetLot
}

// ID returns the account name normalized to an identifier.
func (a Account) ID() string { return strings.ReplaceAll(a.Name, " ", "_") }

// YearsUntilWithdrawal returns the projection horizon for this account.
// A withdrawal planned for the current year still projects over one year, so
// the annualization in the return model never divides by zero.
func (a Account) YearsUntilWithdrawal(currentYear int) int {
	years := a.WithdrawalYear - currentYear
	if years < 1 {
		return 1
	}
	return years
}

// LotsOf yields the account's lots holding the given asset, in account order.
func (a Account) LotsOf(ticker string) iter.Seq[AssetLot] {
	return func(yield func(AssetLot) bool) {
		for _, lot := range a.Lots {
			if lot.Ticker == ticker {
				if !yield(lot) {
					return
				}
			}
		}
	}
}

// Shares returns the total share count the account holds of the given asset.
func (a Account) Shares(ticker string) float64 {
	var total float64
	for lot := range a.LotsOf(ticker) {
		total += lot.Shares
	}
	return total
}

// TotalValue returns the account's cash balance plus the value of its lots at
// current share prices.
func (a Account) TotalValue(assets map[string]Asset) (float64, error) {
	total := a.CashBalance
	for _, lot := range a.Lots {
		asset, ok := assets[lot.Ticker]
		if !ok {
			return 0, fmt.Errorf("account %q holds unknown asset %q", a.Name, lot.Ticker)
		}
		total += lot.Shares * asset.SharePrice
	}
	return total, nil
}

// Validate checks the account invariants enforced at load time.
func (a Account) Validate(today date.Date) error {
	if a.Name == "" {
		return fmt.Errorf("account has no name")
	}
	if a.WithdrawalYear < today.Year() {
		return fmt.Errorf("account %q: withdrawal year %d is in the past", a.Name, a.WithdrawalYear)
	}
	if a.WithdrawalTaxRate != nil && (*a.WithdrawalTaxRate < 0 || *a.WithdrawalTaxRate > 1) {
		return fmt.Errorf("account %q: withdrawal tax rate %v out of [0,1]", a.Name, *a.WithdrawalTaxRate)
	}
	if a.CashBalance < 0 {
		return fmt.Errorf("account %q: negative cash balance %v", a.Name, a.CashBalance)
	}
	for _, lot := range a.Lots {
		if lot.Shares < 0 {
			return fmt.Errorf("account %q: lot of %q has negative share count %v", a.Name, lot.Ticker, lot.Shares)
		}
	}
	return nil
}
