// Package models defines the core domain models for Messbook.
//
// A Mess is a shared household; everything else hangs off it:
//   - Member: one person's tenure in a mess, with a role and status
//   - Cycle: one billing month; at most one cycle per mess is open
//   - DailyMeal: per-member, per-date meal attendance plus guest counts
//   - BazaarExpense/BazaarItem: a shopping trip with its line items
//   - FixedCost, IndividualCost, Deposit: the remaining ledger entries
//   - Snapshot: the frozen per-member balance written when a cycle closes
//
// # Design Principles
//
// 1. **Ledger is truth**: balances and the meal rate are never stored while
// a cycle is open; they are derived on every read (see internal/calculator).
// 2. **Money is decimal**: amounts use shopspring/decimal end to end.
// 3. **Avoid circular references**: relationships use ID strings, not
// pointers.
package models
