package rebalance

import "fmt"

// Config holds the portfolio-wide rebalancing parameters.
type Config struct {
	DriftLimit          float64 // maximum tolerated allocation drift, in [0,1]
	OrdinaryTaxRate     float64 // marginal income tax rate, in [0,1]
	PreferentialTaxRate float64 // long-term capital gains / qualified dividend rate, in [0,1]
	Currency            string  // reporting currency, ISO 4217 code
}

// DefaultCurrency is used when the portfolio document does not name one.
const DefaultCurrency = "USD"

// Validate checks the config invariants enforced at load time.
func (c Config) Validate() error {
	if c.DriftLimit < 0 || c.DriftLimit > 1 {
		return fmt.Errorf("config: drift limit %v out of [0,1]", c.DriftLimit)
	}
	if c.OrdinaryTaxRate < 0 || c.OrdinaryTaxRate > 1 {
		return fmt.Errorf("config: ordinary tax rate %v out of [0,1]", c.OrdinaryTaxRate)
	}
	if c.PreferentialTaxRate < 0 || c.PreferentialTaxRate > 1 {
		return fmt.Errorf("config: preferential tax rate %v out of [0,1]", c.PreferentialTaxRate)
	}
	return nil
}
