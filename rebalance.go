package rebalance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/solver"
)

// AllowedSales selects which existing holdings the optimizer may sell.
type AllowedSales int

const (
	// SalesNone forbids selling any position.
	SalesNone AllowedSales = iota
	// SalesTaxFree forbids selling positions held in taxable accounts.
	SalesTaxFree
	// SalesLongTerm forbids selling short-term lots held in taxable accounts.
	SalesLongTerm
	// SalesAll allows selling anything.
	SalesAll
)

func (s AllowedSales) String() string {
	switch s {
	case SalesNone:
		return "none"
	case SalesTaxFree:
		return "tax-free"
	case SalesLongTerm:
		return "long-term"
	case SalesAll:
		return "all"
	default:
		panic(fmt.Sprintf("unknown allowed sales mode %d", s))
	}
}

func ParseAllowedSales(s string) (AllowedSales, error) {
	switch strings.ToLower(s) {
	case "none":
		return SalesNone, nil
	case "tax-free", "taxfree":
		return SalesTaxFree, nil
	case "long-term", "longterm":
		return SalesLongTerm, nil
	case "all":
		return SalesAll, nil
	default:
		return SalesNone, fmt.Errorf("unknown allowed sales mode %q", s)
	}
}

// Position is one (account, asset) pair of a rebalance run, carrying the
// current share count and, after a successful solve, the target share count.
// Positions live only for the duration of one run.
type Position struct {
	Account *Account
	Asset   Asset
	Current float64 // shares currently held
	Target  int     // shares to hold after rebalancing

	variable solver.Variable
}

// Delta returns the signed share count to buy (positive) or sell (negative).
func (p *Position) Delta() float64 { return float64(p.Target) - p.Current }

// TargetInvestment returns the value of the target holding at current prices.
func (p *Position) TargetInvestment() float64 { return float64(p.Target) * p.Asset.SharePrice }

// shortTermShares counts the position's shares held in short-term lots.
// Lots without a purchase date are of unknown term and do not count.
func (p *Position) shortTermShares(on date.Date) float64 {
	var total float64
	for lot := range p.Account.LotsOf(p.Asset.Ticker) {
		if term, ok := lot.HoldTerm(on); ok && term == Short {
			total += lot.Shares
		}
	}
	return total
}

// ErrCannotRebalance reports that no feasible optimum exists even at the
// maximum configured drift tolerance.
var ErrCannotRebalance = errors.New("the portfolio cannot be rebalanced with the given constraints")

// startingTolerance is the drift tolerance of the first solve attempt; it is
// doubled on every infeasible attempt up to the configured drift limit.
const startingTolerance = 0.0001

// defaultMaxAttempts guards the drift-relaxation loop against a
// misconfigured drift limit. Doubling from the starting tolerance reaches
// any valid limit in far fewer steps.
const defaultMaxAttempts = 64

// Options tunes one rebalance run.
type Options struct {
	// AllowedSales selects the sale policy. Default is SalesNone.
	AllowedSales AllowedSales
	// ProxyTicker names the broad-market proxy. Default is DefaultProxyTicker.
	ProxyTicker string
	// TimeLimit bounds each solver call. Zero means unbounded. Exceeding it
	// is treated as a failed solve.
	TimeLimit time.Duration
	// MaxAttempts bounds the drift-relaxation loop. Default is
	// defaultMaxAttempts.
	MaxAttempts int
	// Today anchors holding terms and the projection horizon. Default is
	// the current date.
	Today date.Date
}

func (o Options) withDefaults() Options {
	if o.ProxyTicker == "" {
		o.ProxyTicker = DefaultProxyTicker
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if (o.Today == date.Date{}) {
		o.Today = date.Today()
	}
	return o
}

// Result is a successful rebalance: a target share count for every position,
// and the drift tolerance at which the optimum was found.
type Result struct {
	Positions []*Position
	Tolerance float64
	Attempts  int
}

// Rebalance computes the optimal target share counts for every (account,
// asset) pair of the portfolio, maximizing projected after-tax value subject
// to cash, drift and sale-policy constraints.
//
// The solve starts at a tight drift tolerance and doubles it on every
// infeasible attempt; once the tolerance exceeds the portfolio's drift limit
// the run fails with ErrCannotRebalance.
func Rebalance(p *Portfolio, md MarketData, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	projector, err := NewProjector(md, opts.ProxyTicker, p.NonCashAssets(), opts.Today.Year())
	if err != nil {
		return nil, err
	}
	return rebalanceWith(p, projector, opts)
}

// rebalanceWith is the drift-relaxation loop over a prepared projector.
func rebalanceWith(p *Portfolio, projector *Projector, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	tolerance := startingTolerance
	for attempt := 1; ; attempt++ {
		if attempt > opts.MaxAttempts {
			return nil, fmt.Errorf("drift relaxation exceeded %d attempts: %w", opts.MaxAttempts, ErrCannotRebalance)
		}
		positions, status, err := trySolve(p, projector, tolerance, opts)
		if err != nil {
			return nil, err
		}
		if status == solver.Optimal {
			return &Result{Positions: positions, Tolerance: tolerance, Attempts: attempt}, nil
		}
		tolerance *= 2
		if tolerance > p.Config.DriftLimit {
			return nil, fmt.Errorf("no feasible optimum within drift limit %v (last solve %s): %w",
				p.Config.DriftLimit, status, ErrCannotRebalance)
		}
	}
}

// trySolve formulates and solves the program at one drift tolerance.
func trySolve(p *Portfolio, projector *Projector, tolerance float64, opts Options) ([]*Position, solver.Status, error) {
	assets := p.AssetsByTicker()
	totalValue, err := p.TotalValue()
	if err != nil {
		return nil, 0, err
	}
	if totalValue == 0 {
		return nil, 0, fmt.Errorf("portfolio has zero total value")
	}

	problem := solver.NewProblem("rebalance", solver.Maximize)
	if opts.TimeLimit > 0 {
		problem.SetTimeLimit(opts.TimeLimit)
	}

	// The decision-variable map is built once per solve and shared by
	// constraint and objective construction.
	var positions []*Position
	for i := range p.Accounts {
		account := &p.Accounts[i]
		for _, asset := range p.NonCashAssets() {
			positions = append(positions, &Position{
				Account:  account,
				Asset:    asset,
				Current:  account.Shares(asset.Ticker),
				variable: problem.NewIntVar(fmt.Sprintf("target_shares_account_%s_asset_%s", account.ID(), asset.Ticker)),
			})
		}
	}

	// The total investment in every account must not exceed its current value.
	for i := range p.Accounts {
		account := &p.Accounts[i]
		value, err := account.TotalValue(assets)
		if err != nil {
			return nil, 0, err
		}
		var terms []solver.Term
		for _, pos := range positions {
			if pos.Account == account {
				terms = append(terms, solver.Term{Var: pos.variable, Coeff: pos.Asset.SharePrice})
			}
		}
		problem.AddConstraint(
			fmt.Sprintf("investments_dont_exceed_value_account_%s", account.ID()),
			terms, solver.LessEq, value)
	}

	// Every allocation must stay within the drift tolerance of its target
	// proportion. With a constant total value the drift bound
	//   -d <= proportion - invested/total <= d
	// becomes a pair of linear bounds on the matching investment.
	for _, alloc := range p.Allocations {
		var terms []solver.Term
		for _, pos := range positions {
			if alloc.Matches(pos.Asset) {
				terms = append(terms, solver.Term{Var: pos.variable, Coeff: pos.Asset.SharePrice})
			}
		}
		problem.AddConstraint(
			fmt.Sprintf("drift_within_positive_limit_allocation_%s", alloc.ID()),
			terms, solver.GreaterEq, (alloc.Proportion-tolerance)*totalValue)
		problem.AddConstraint(
			fmt.Sprintf("drift_within_negative_limit_allocation_%s", alloc.ID()),
			terms, solver.LessEq, (alloc.Proportion+tolerance)*totalValue)
	}

	// Sale-policy constraints.
	for _, pos := range positions {
		name := fmt.Sprintf("account_%s_asset_%s", pos.Account.ID(), pos.Asset.Ticker)
		switch {
		case opts.AllowedSales == SalesNone:
			problem.AddConstraint("no_sales_"+name,
				[]solver.Term{{Var: pos.variable, Coeff: 1}}, solver.GreaterEq, pos.Current)
		case opts.AllowedSales == SalesTaxFree && pos.Account.TaxationClass == Taxable:
			problem.AddConstraint("no_taxable_sales_"+name,
				[]solver.Term{{Var: pos.variable, Coeff: 1}}, solver.GreaterEq, pos.Current)
		case opts.AllowedSales == SalesLongTerm && pos.Account.TaxationClass == Taxable:
			if shortTerm := pos.shortTermShares(opts.Today); shortTerm > 0 {
				problem.AddConstraint("no_short_term_sales_"+name,
					[]solver.Term{{Var: pos.variable, Coeff: 1}}, solver.GreaterEq, shortTerm)
			}
		}
	}

	// Objective: the projected after-tax value of every target holding.
	for _, pos := range positions {
		rate, err := projector.Rate(*pos.Account, pos.Asset, p.Config)
		if err != nil {
			return nil, 0, err
		}
		problem.SetObjective(pos.variable, pos.Asset.SharePrice*rate)
	}

	sol, err := problem.Solve()
	if err != nil {
		return nil, 0, err
	}
	if sol.Status != solver.Optimal {
		return nil, sol.Status, nil
	}
	for _, pos := range positions {
		pos.Target = sol.IntValue(pos.variable)
	}
	return positions, solver.Optimal, nil
}
