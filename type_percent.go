package rebalance

import "fmt"

// Percent is a value expressed in percent (1.5 means 1.5%).
type Percent float64

// P converts a proportion in [0,1] into a Percent.
func P(proportion float64) Percent { return Percent(proportion * 100) }

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}
