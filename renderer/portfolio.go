package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/rebalance"
)

// PortfolioMarkdown renders the loaded portfolio snapshot: configuration,
// allocations, assets and accounts with their lots.
func PortfolioMarkdown(p *rebalance.Portfolio) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Portfolio\n\n")
	fmt.Fprintf(&b, "Drift limit %s, ordinary tax rate %s, preferential tax rate %s\n\n",
		rebalance.P(p.Config.DriftLimit),
		rebalance.P(p.Config.OrdinaryTaxRate),
		rebalance.P(p.Config.PreferentialTaxRate),
	)

	fmt.Fprint(&b, "## Allocations\n\n")
	fmt.Fprintln(&b, "| Allocation | Target | Class | Locale |")
	fmt.Fprintln(&b, "|:---|---:|:---|:---|")
	for _, alloc := range p.Allocations {
		class, locale := "*", "*"
		if alloc.Class != nil {
			class = alloc.Class.String()
		}
		if alloc.Locale != nil {
			locale = alloc.Locale.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", alloc.Name, rebalance.P(alloc.Proportion), class, locale)
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Assets\n\n")
	fmt.Fprintln(&b, "| Ticker | Class | Locale | Price | QDI |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|")
	for _, asset := range p.Assets {
		locale := ""
		if asset.Locale != nil {
			locale = asset.Locale.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			asset.Ticker,
			asset.Class.String(),
			locale,
			rebalance.M(asset.SharePrice, p.Config.Currency),
			rebalance.P(asset.QDI),
		)
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Accounts\n\n")
	for _, account := range p.Accounts {
		fmt.Fprintf(&b, "### %s (%s, withdrawal %d)\n\n", account.Name, account.TaxationClass, account.WithdrawalYear)
		fmt.Fprintf(&b, "Cash balance: %s\n\n", rebalance.M(account.CashBalance, p.Config.Currency))
		if len(account.Lots) == 0 {
			continue
		}
		fmt.Fprintln(&b, "| Ticker | Shares | Purchased | Purchase Price |")
		fmt.Fprintln(&b, "|:---|---:|:---|---:|")
		for _, lot := range account.Lots {
			purchased, price := "?", "?"
			if lot.PurchaseDate != nil {
				purchased = lot.PurchaseDate.String()
			}
			if lot.PurchasePrice != nil {
				price = rebalance.M(*lot.PurchasePrice, p.Config.Currency).String()
			}
			fmt.Fprintf(&b, "| %s | %v | %s | %s |\n", lot.Ticker, lot.Shares, purchased, price)
		}
		fmt.Fprintln(&b)
	}

	return b.String()
}
