package models

import "github.com/shopspring/decimal"

// CycleStatus is the lifecycle state of a billing cycle.
type CycleStatus string

const (
	CycleOpen     CycleStatus = "open"
	CycleClosed   CycleStatus = "closed"
	CycleArchived CycleStatus = "archived"
)

// DateLayout is the calendar-date format used for meal dates and cycle
// boundaries throughout the module.
const DateLayout = "2006-01-02"

// Cycle is one billing month for a mess. At most one cycle per mess is
// open at any time. Once closed a cycle is immutable: its ledgers accept
// no further writes and FinalMealRate is frozen forever.
type Cycle struct {
	// ID is the unique identifier for the cycle (UUID format).
	ID string `json:"id"`

	// MessID is the mess this cycle belongs to.
	MessID string `json:"mess_id"`

	// Name is the display name, usually the month ("January 2026").
	Name string `json:"name"`

	// StartDate and EndDate bound the cycle, inclusive ("2006-01-02").
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Status is open, closed or archived.
	Status CycleStatus `json:"status"`

	// FinalMealRate is nil while the cycle is open. Set exactly once, by
	// the close operation, to the rate as of the close instant.
	FinalMealRate *decimal.Decimal `json:"final_meal_rate,omitempty"`

	// CreatedAt is the Unix timestamp when the cycle was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updated_at"`
}

// Snapshot is one immutable row per member per closed cycle, capturing the
// exact balance components at close time. Written only by the close
// operation, never mutated afterward. The ClosingBalance seeds the
// member's opening balance in the successor cycle.
type Snapshot struct {
	ID                  string          `json:"id"`
	CycleID             string          `json:"cycle_id"`
	MemberID            string          `json:"member_id"`
	TotalMeals          int             `json:"total_meals"`
	MealRate            decimal.Decimal `json:"meal_rate"`
	TotalMealCost       decimal.Decimal `json:"total_meal_cost"`
	TotalFixedCost      decimal.Decimal `json:"total_fixed_cost"`
	TotalIndividualCost decimal.Decimal `json:"total_individual_cost"`
	TotalDeposits       decimal.Decimal `json:"total_deposits"`
	OpeningBalance      decimal.Decimal `json:"opening_balance"`
	ClosingBalance      decimal.Decimal `json:"closing_balance"`
	CreatedAt           int64           `json:"created_at"`
}
