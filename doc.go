// Package payments maintains client account balances from a stream of
// transaction events.
//
// The core is a small state machine:
//   - Ledger Store: client accounts (available, held, locked) and the index of
//     deposits and withdrawals that later disputes refer to.
//   - Processor: applies Deposit, Withdrawal, Dispute, Resolve and Chargeback
//     events in arrival order. An event is either applied completely or
//     rejected, reported to a Sink, and the stream goes on.
//
// Amounts are exact fixed-point decimals with 4 fractional digits, there is no
// floating point anywhere in the ledger.
//
// Around the core, the package decodes event streams (CSV, JSON lines, JSON
// documents queried with jsonpath) and encodes account snapshots (CSV, JSON
// lines). This package is the foundation of the `pay` command-line tool.
package payments
