package rebalance

import (
	"math"
	"testing"
)

func TestSecurityHistory_AnnualReturns(t *testing.T) {
	h := newHistory(
		"2021-06-01", 90.0,
		"2021-12-30", 100.0,
		"2022-12-30", 110.0,
		"2024-12-31", 132.0,
		"2025-02-01", 999.0, // current partial year, excluded
	)
	returns := h.AnnualReturns(2025)

	if len(returns) != 3 {
		t.Fatalf("AnnualReturns() = %v, want 3 years", returns)
	}
	if math.Abs(returns[2022]-0.10) > 1e-12 {
		t.Errorf("AnnualReturns()[2022] = %v, want 0.10", returns[2022])
	}
	// 2023 has no record: the 2022 close carries forward, a zero return.
	if math.Abs(returns[2023]) > 1e-12 {
		t.Errorf("AnnualReturns()[2023] = %v, want 0 for a gap year", returns[2023])
	}
	if math.Abs(returns[2024]-0.20) > 1e-12 {
		t.Errorf("AnnualReturns()[2024] = %v, want 0.20", returns[2024])
	}
}

func TestSecurityHistory_MeanAnnualDividend(t *testing.T) {
	h := newHistory(
		"2022-12-30", 100.0,
		"2023-12-29", 100.0,
		"2024-12-31", 100.0,
	).
		withDividend("2022-03-15", 1.0).
		withDividend("2022-09-15", 1.0).
		withDividend("2023-03-15", 4.0).
		// 2024 pays nothing but still counts as a zero-dividend year.
		withDividend("2025-03-15", 100.0) // current year, excluded

	mean := h.MeanAnnualDividend(2025)
	if math.Abs(mean-2.0) > 1e-12 {
		t.Errorf("MeanAnnualDividend() = %v, want 2 ((2+4+0)/3)", mean)
	}
}

func TestSecurityHistory_DailyReturns(t *testing.T) {
	h := newHistory(
		"2024-01-02", 100.0,
		"2024-01-03", 101.0,
		"2024-01-04", 103.02,
	)
	rets := h.DailyReturns()
	if len(rets) != 2 {
		t.Fatalf("DailyReturns() = %v, want 2 returns", rets)
	}
	if math.Abs(rets[0]-0.01) > 1e-12 || math.Abs(rets[1]-0.02) > 1e-12 {
		t.Errorf("DailyReturns() = %v, want [0.01 0.02]", rets)
	}
}
