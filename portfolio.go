package rebalance

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/etnz/rebalance/date"
)

// Portfolio is the immutable snapshot a rebalance run operates on: target
// allocations, accounts with their lots, the investable assets, and the
// rebalancing configuration.
//
// A Portfolio is constructed once, validated, and then treated as read-only.
type Portfolio struct {
	Allocations []Allocation
	Accounts    []Account
	Assets      []Asset
	Config      Config
}

// proportionTolerance absorbs the decimal-to-binary rounding of proportions
// read from JSON. Allocations must still sum to 1 within it.
const proportionTolerance = 1e-9

// Validate checks every load-time invariant: allocation proportions summing
// to one, non-negative quantities, rates within range, and withdrawal years
// not in the past. All failures are reported together.
func (p *Portfolio) Validate(today date.Date) error {
	var errs []error

	if err := p.Config.Validate(); err != nil {
		errs = append(errs, err)
	}

	var sum float64
	for _, alloc := range p.Allocations {
		if err := alloc.Validate(); err != nil {
			errs = append(errs, err)
		}
		sum += alloc.Proportion
	}
	if math.Abs(sum-1.0) > proportionTolerance {
		errs = append(errs, fmt.Errorf("allocation proportions sum to %v; must sum to 1", sum))
	}

	seen := make(map[string]bool)
	for _, asset := range p.Assets {
		if err := asset.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[asset.Ticker] {
			errs = append(errs, fmt.Errorf("duplicate asset %q", asset.Ticker))
		}
		seen[asset.Ticker] = true
	}

	assets := p.AssetsByTicker()
	for _, account := range p.Accounts {
		if err := account.Validate(today); err != nil {
			errs = append(errs, err)
		}
		for _, lot := range account.Lots {
			if _, ok := assets[lot.Ticker]; !ok {
				errs = append(errs, fmt.Errorf("account %q holds unknown asset %q", account.Name, lot.Ticker))
			}
		}
	}

	return errors.Join(errs...)
}

// AssetsByTicker returns the assets indexed by ticker.
func (p *Portfolio) AssetsByTicker() map[string]Asset {
	byTicker := make(map[string]Asset, len(p.Assets))
	for _, asset := range p.Assets {
		byTicker[asset.Ticker] = asset
	}
	return byTicker
}

// NonCashAssets returns the assets eligible for share variables.
func (p *Portfolio) NonCashAssets() []Asset {
	var assets []Asset
	for _, asset := range p.Assets {
		if asset.Class != Cash {
			assets = append(assets, asset)
		}
	}
	return assets
}

// TotalValue returns the portfolio value: every account's cash balance plus
// its lots at current share prices.
func (p *Portfolio) TotalValue() (float64, error) {
	assets := p.AssetsByTicker()
	var total float64
	for _, account := range p.Accounts {
		value, err := account.TotalValue(assets)
		if err != nil {
			return 0, err
		}
		total += value
	}
	return total, nil
}

// This file also contains the code to persist a portfolio as a single
// human-readable JSON document. Parsing uses dedicated local structs with tag
// annotations, so the wire format never leaks into the domain types.

type jlot struct {
	Ticker        string   `json:"ticker"`
	Shares        float64  `json:"shares"`
	PurchaseDate  *string  `json:"purchase_date,omitempty"`
	PurchasePrice *float64 `json:"purchase_price,omitempty"`
}

type jaccount struct {
	Name              string   `json:"name"`
	TaxationClass     string   `json:"taxation_class"`
	WithdrawalYear    int      `json:"withdrawal_year"`
	WithdrawalTaxRate *float64 `json:"withdrawal_tax_rate,omitempty"`
	CashBalance       float64  `json:"cash_balance"`
	Lots              []jlot   `json:"lots,omitempty"`
}

type jasset struct {
	Ticker            string  `json:"ticker"`
	Class             string  `json:"class"`
	Locale            *string `json:"locale,omitempty"`
	SharePrice        float64 `json:"share_price"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	QDI               float64 `json:"qdi"`
}

type jallocation struct {
	Name       string  `json:"name"`
	Proportion float64 `json:"proportion"`
	Class      *string `json:"class,omitempty"`
	Locale     *string `json:"locale,omitempty"`
}

type jconfig struct {
	DriftLimit          float64 `json:"drift_limit"`
	OrdinaryTaxRate     float64 `json:"ordinary_tax_rate"`
	PreferentialTaxRate float64 `json:"preferential_tax_rate"`
	Currency            string  `json:"currency,omitempty"`
}

type jportfolio struct {
	Config      jconfig       `json:"config"`
	Allocations []jallocation `json:"allocations"`
	Assets      []jasset      `json:"assets"`
	Accounts    []jaccount    `json:"accounts"`
}

// DecodePortfolio reads a portfolio JSON document, converts it into the
// domain model, and validates it. Any validation failure is fatal: no
// optimization is attempted on a partially valid snapshot.
func DecodePortfolio(r io.Reader, today date.Date) (*Portfolio, error) {
	var doc jportfolio
	dec := json.NewDecoder(bufio.NewReader(r))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse portfolio document: %w", err)
	}

	p := &Portfolio{
		Config: Config{
			DriftLimit:          doc.Config.DriftLimit,
			OrdinaryTaxRate:     doc.Config.OrdinaryTaxRate,
			PreferentialTaxRate: doc.Config.PreferentialTaxRate,
			Currency:            doc.Config.Currency,
		},
	}
	if p.Config.Currency == "" {
		p.Config.Currency = DefaultCurrency
	}

	for _, ja := range doc.Allocations {
		alloc := Allocation{Name: ja.Name, Proportion: ja.Proportion}
		if ja.Class != nil {
			class, err := ParseAssetClass(*ja.Class)
			if err != nil {
				return nil, fmt.Errorf("allocation %q: %w", ja.Name, err)
			}
			alloc.Class = &class
		}
		if ja.Locale != nil {
			locale, err := ParseAssetLocale(*ja.Locale)
			if err != nil {
				return nil, fmt.Errorf("allocation %q: %w", ja.Name, err)
			}
			alloc.Locale = &locale
		}
		p.Allocations = append(p.Allocations, alloc)
	}

	for _, ja := range doc.Assets {
		class, err := ParseAssetClass(ja.Class)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", ja.Ticker, err)
		}
		asset := Asset{
			Ticker:            ja.Ticker,
			Class:             class,
			SharePrice:        ja.SharePrice,
			SharesOutstanding: ja.SharesOutstanding,
			QDI:               ja.QDI,
		}
		if ja.Locale != nil {
			locale, err := ParseAssetLocale(*ja.Locale)
			if err != nil {
				return nil, fmt.Errorf("asset %q: %w", ja.Ticker, err)
			}
			asset.Locale = &locale
		}
		p.Assets = append(p.Assets, asset)
	}

	for _, ja := range doc.Accounts {
		class, err := ParseTaxationClass(ja.TaxationClass)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", ja.Name, err)
		}
		account := Account{
			Name:              ja.Name,
			TaxationClass:     class,
			WithdrawalYear:    ja.WithdrawalYear,
			WithdrawalTaxRate: ja.WithdrawalTaxRate,
			CashBalance:       ja.CashBalance,
		}
		for _, jl := range ja.Lots {
			lot := AssetLot{Ticker: jl.Ticker, Shares: jl.Shares, PurchasePrice: jl.PurchasePrice}
			if jl.PurchaseDate != nil {
				on, err := date.Parse(*jl.PurchaseDate)
				if err != nil {
					return nil, fmt.Errorf("account %q lot of %q: %w", ja.Name, jl.Ticker, err)
				}
				lot.PurchaseDate = &on
			}
			account.Lots = append(account.Lots, lot)
		}
		p.Accounts = append(p.Accounts, account)
	}

	if err := p.Validate(today); err != nil {
		return nil, fmt.Errorf("invalid portfolio: %w", err)
	}
	return p, nil
}

// EncodePortfolio writes the portfolio back as a canonical, human-readable
// JSON document.
func EncodePortfolio(w io.Writer, p *Portfolio) error {
	doc := jportfolio{
		Config: jconfig{
			DriftLimit:          p.Config.DriftLimit,
			OrdinaryTaxRate:     p.Config.OrdinaryTaxRate,
			PreferentialTaxRate: p.Config.PreferentialTaxRate,
			Currency:            p.Config.Currency,
		},
	}
	for _, alloc := range p.Allocations {
		ja := jallocation{Name: alloc.Name, Proportion: alloc.Proportion}
		if alloc.Class != nil {
			s := alloc.Class.String()
			ja.Class = &s
		}
		if alloc.Locale != nil {
			s := alloc.Locale.String()
			ja.Locale = &s
		}
		doc.Allocations = append(doc.Allocations, ja)
	}
	for _, asset := range p.Assets {
		ja := jasset{
			Ticker:            asset.Ticker,
			Class:             asset.Class.String(),
			SharePrice:        asset.SharePrice,
			SharesOutstanding: asset.SharesOutstanding,
			QDI:               asset.QDI,
		}
		if asset.Locale != nil {
			s := asset.Locale.String()
			ja.Locale = &s
		}
		doc.Assets = append(doc.Assets, ja)
	}
	for _, account := range p.Accounts {
		ja := jaccount{
			Name:              account.Name,
			TaxationClass:     account.TaxationClass.String(),
			WithdrawalYear:    account.WithdrawalYear,
			WithdrawalTaxRate: account.WithdrawalTaxRate,
			CashBalance:       account.CashBalance,
		}
		for _, lot := range account.Lots {
			jl := jlot{Ticker: lot.Ticker, Shares: lot.Shares, PurchasePrice: lot.PurchasePrice}
			if lot.PurchaseDate != nil {
				s := lot.PurchaseDate.String()
				jl.PurchaseDate = &s
			}
			ja.Lots = append(ja.Lots, jl)
		}
		doc.Accounts = append(doc.Accounts, ja)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
