// Package rebalance computes an optimal reallocation of an investor's
// holdings across accounts and assets, maximizing projected after-tax return
// subject to cash, allocation-drift, and tax-sale constraints, then
// decomposes any required sales into specific tax lots to minimize realized
// capital gains.
//
// The core functionalities include:
//   - Portfolio Model: an immutable snapshot of accounts, assets, allocations
//     and configuration, validated once at load time.
//   - Return Projection: market-implied expected returns per asset
//     (Black-Litterman prior), converted into after-tax annualized rates
//     under the taxable, tax-deferred, and tax-exempt regimes.
//   - Optimization: integer share variables per (account, asset) pair under
//     cash, drift, and sale-policy constraints, solved through the solver
//     package; an iterative drift-tolerance relaxation guarantees a feasible
//     optimum or fails with ErrCannotRebalance.
//   - Tax-Lot Sales: each position's negative share delta is decomposed into
//     per-lot sales, highest purchase price first.
//
// This package serves as the foundational logic for the `rebal` command-line
// tool.
package rebalance
