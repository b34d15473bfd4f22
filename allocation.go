package rebalance

import (
	"fmt"
	"strings"
)

// Allocation is a target slice of the portfolio, optionally restricted to an
// asset class and locale.
type Allocation struct {
	Name       string
	Proportion float64      // target proportion of total portfolio value, in [0,1]
	Class      *AssetClass  // nil matches every class
	Locale     *AssetLocale // nil matches every locale
}

// ID returns the allocation name normalized to an identifier.
func (a Allocation) ID() string { return strings.ReplaceAll(a.Name, " ", "_") }

// Matches reports whether the asset counts toward this allocation: every
// non-nil filter must equal the asset's corresponding field.
func (a Allocation) Matches(asset Asset) bool {
	if a.Class != nil && *a.Class != asset.Class {
		return false
	}
	if a.Locale != nil && (asset.Locale == nil || *a.Locale != *asset.Locale) {
		return false
	}
	return true
}

// Validate checks the allocation invariants enforced at load time.
func (a Allocation) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("allocation has no name")
	}
	if a.Proportion < 0 || a.Proportion > 1 {
		return fmt.Errorf("allocation %q: proportion %v out of [0,1]", a.Name, a.Proportion)
	}
	return nil
}
