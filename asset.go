package rebalance

import (
	"fmt"
	"strings"
)

// AssetClass categorizes an asset for allocation matching.
type AssetClass int

const (
	Cash AssetClass = iota
	Equity
	FixedIncome
	RealEstate
)

func (c AssetClass) String() string {
	switch c {
	case Cash:
		return "cash"
	case Equity:
		return "equity"
	case FixedIncome:
		return "fixed-income"
	case RealEstate:
		return "real-estate"
	default:
		panic(fmt.Sprintf("unknown asset class %d", c))
	}
}

func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(s) {
	case "cash":
		return Cash, nil
	case "equity":
		return Equity, nil
	case "fixed-income", "fixed income":
		return FixedIncome, nil
	case "real-estate", "real estate":
		return RealEstate, nil
	default:
		return Cash, fmt.Errorf("unknown asset class %q", s)
	}
}

// AssetLocale is the geographic market an asset trades in.
type AssetLocale int

const (
	US AssetLocale = iota
	International
)

func (l AssetLocale) String() string {
	switch l {
	case US:
		return "US"
	case International:
		return "international"
	default:
		panic(fmt.Sprintf("unknown asset locale %d", l))
	}
}

func ParseAssetLocale(s string) (AssetLocale, error) {
	switch strings.ToLower(s) {
	case "us":
		return US, nil
	case "international", "intl":
		return International, nil
	default:
		return US, fmt.Errorf("unknown asset locale %q", s)
	}
}

// Asset is a security that can be held in any account. Its identity is the ticker.
type Asset struct {
	Ticker            string
	Class             AssetClass
	Locale            *AssetLocale // nil when the asset has no meaningful locale
	SharePrice        float64
	SharesOutstanding float64
	QDI               float64 // qualified-dividend-income proportion in [0,1]
}

// MarketCap returns the asset's market capitalization at the current share price.
func (a Asset) MarketCap() float64 { return a.SharePrice * a.SharesOutstanding }

// Validate checks the asset invariants enforced at load time.
func (a Asset) Validate() error {
	if a.Ticker == "" {
		return fmt.Errorf("asset has no ticker")
	}
	if a.SharePrice < 0 {
		return fmt.Errorf("asset %q: negative share price %v", a.Ticker, a.SharePrice)
	}
	if a.QDI < 0 || a.QDI > 1 {
		return fmt.Errorf("asset %q: QDI proportion %v out of [0,1]", a.Ticker, a.QDI)
	}
	return nil
}
