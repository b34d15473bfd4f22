package rebalance

import (
	"errors"
	"testing"
)

func sellingPosition(lots []AssetLot, target int) *Position {
	return &Position{
		Account: &Account{Name: "Brokerage", TaxationClass: Taxable, WithdrawalYear: 2035, Lots: lots},
		Asset:   Asset{Ticker: "VTI", Class: Equity, SharePrice: 100},
		Current: 0,
		Target:  target,
	}
}

func TestGenerateSales_HighestPriceFirst(t *testing.T) {
	// Selling 12 of 20 shares: the 80-dollar lot goes first, then two shares
	// of the 50-dollar lot.
	lots := []AssetLot{
		{Ticker: "VTI", Shares: 10, PurchaseDate: dptr("2020-03-01"), PurchasePrice: fptr(50)},
		{Ticker: "VTI", Shares: 10, PurchaseDate: dptr("2021-03-01"), PurchasePrice: fptr(80)},
	}
	pos := sellingPosition(lots, 8)
	pos.Current = 20

	sales, err := pos.GenerateSales(SalesAll, testToday, "USD")
	if err != nil {
		t.Fatalf("GenerateSales() error = %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("got %d sales, want 2", len(sales))
	}
	if *sales[0].Lot.PurchasePrice != 80 || sales[0].Shares != 10 {
		t.Errorf("first sale: %v shares at basis %v, want all 10 of the 80-dollar lot",
			sales[0].Shares, *sales[0].Lot.PurchasePrice)
	}
	if *sales[1].Lot.PurchasePrice != 50 || sales[1].Shares != 2 {
		t.Errorf("second sale: %v shares at basis %v, want 2 of the 50-dollar lot",
			sales[1].Shares, *sales[1].Lot.PurchasePrice)
	}

	var total float64
	for _, sale := range sales {
		total += sale.Shares
	}
	if total != -pos.Delta() {
		t.Errorf("sold %v shares, want the full delta %v", total, -pos.Delta())
	}
}

func TestGenerateSales_UnknownPriceLotsSellLast(t *testing.T) {
	lots := []AssetLot{
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2020-03-01")}, // price unknown
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2021-03-01"), PurchasePrice: fptr(40)},
	}
	pos := sellingPosition(lots, 0)
	pos.Current = 10

	sales, err := pos.GenerateSales(SalesAll, testToday, "USD")
	if err != nil {
		t.Fatalf("GenerateSales() error = %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("got %d sales, want 2", len(sales))
	}
	if sales[0].Lot.PurchasePrice == nil {
		t.Error("first sale came from the unknown-price lot, want the priced lot first")
	}
	if sales[1].Lot.PurchasePrice != nil {
		t.Error("last sale should come from the unknown-price lot")
	}
	if _, ok := sales[1].CostBasis(); ok {
		t.Error("CostBasis() of an unknown-price lot should report not ok")
	}
}

func TestGenerateSales_ShortTermLotsIneligible(t *testing.T) {
	lots := []AssetLot{
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2025-01-15"), PurchasePrice: fptr(95)},
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2020-03-01"), PurchasePrice: fptr(50)},
	}
	pos := sellingPosition(lots, 5)
	pos.Current = 10

	sales, err := pos.GenerateSales(SalesLongTerm, testToday, "USD")
	if err != nil {
		t.Fatalf("GenerateSales() error = %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("got %d sales, want 1", len(sales))
	}
	if *sales[0].Lot.PurchasePrice != 50 {
		t.Errorf("sold the short-term lot (basis %v), want only the long-term one",
			*sales[0].Lot.PurchasePrice)
	}

	// The same delta under SalesAll may dip into the short-term lot, which
	// carries the higher basis and therefore sells first.
	pos = sellingPosition(lots, 2)
	pos.Current = 10
	sales, err = pos.GenerateSales(SalesAll, testToday, "USD")
	if err != nil {
		t.Fatalf("GenerateSales() error = %v", err)
	}
	if *sales[0].Lot.PurchasePrice != 95 {
		t.Errorf("first sale basis = %v, want the 95-dollar short-term lot under SalesAll",
			*sales[0].Lot.PurchasePrice)
	}
	if term, ok := sales[0].Term(); !ok || term != Short {
		t.Errorf("Term() = %v, %v, want Short, true", term, ok)
	}
}

func TestGenerateSales_ShortInventory(t *testing.T) {
	// Only the long-term lot is eligible under SalesLongTerm, and it cannot
	// cover a 7-share sale.
	lots := []AssetLot{
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2025-01-15"), PurchasePrice: fptr(95)},
		{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2020-03-01"), PurchasePrice: fptr(50)},
	}
	pos := sellingPosition(lots, 3)
	pos.Current = 10

	_, err := pos.GenerateSales(SalesLongTerm, testToday, "USD")
	if !errors.Is(err, ErrShortInventory) {
		t.Fatalf("GenerateSales() error = %v, want ErrShortInventory", err)
	}
}

func TestGenerateSales_PurchaseGeneratesNoSales(t *testing.T) {
	lots := []AssetLot{{Ticker: "VTI", Shares: 5, PurchaseDate: dptr("2020-03-01"), PurchasePrice: fptr(50)}}
	pos := sellingPosition(lots, 8)
	pos.Current = 5

	sales, err := pos.GenerateSales(SalesAll, testToday, "USD")
	if err != nil {
		t.Fatalf("GenerateSales() error = %v", err)
	}
	if sales != nil {
		t.Errorf("got %d sales for a buying position, want none", len(sales))
	}
}

func TestSale_MoneyDerivations(t *testing.T) {
	long := Long
	sale := Sale{
		Lot:       AssetLot{Ticker: "VTI", Shares: 10, PurchaseDate: dptr("2020-03-01"), PurchasePrice: fptr(80)},
		Shares:    4,
		SalePrice: 100,
		currency:  "USD",
		term:      &long,
	}

	if got := sale.Proceeds().String(); got != "$400.00" {
		t.Errorf("Proceeds() = %s, want $400.00", got)
	}
	basis, ok := sale.CostBasis()
	if !ok || basis.String() != "$320.00" {
		t.Errorf("CostBasis() = %s, %v, want $320.00, true", basis, ok)
	}
	gain, ok := sale.CapitalGain()
	if !ok || gain.String() != "$80.00" {
		t.Errorf("CapitalGain() = %s, %v, want $80.00, true", gain, ok)
	}
	if term, ok := sale.Term(); !ok || term != Long {
		t.Errorf("Term() = %v, %v, want Long, true", term, ok)
	}
}
