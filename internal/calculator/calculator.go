// Package calculator derives the meal rate and member balances from raw
// ledger state. Everything here is a pure function: no storage, no clock,
// no caching. Callers re-derive on every read so a late approval or meal
// edit is reflected on the very next read with no reconciliation step.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
)

// sharePrecision is the scale used when dividing totals (meal rate,
// fixed-cost share). Four decimal places keeps per-member shares stable
// across reads while staying well under currency noise.
const sharePrecision = 4

// MealRate returns the cycle-wide cost per meal unit: approved bazaar
// spend divided by total meal units. Zero units yields a zero rate by
// definition, not an error.
func MealRate(totalApprovedBazaar decimal.Decimal, totalMealUnits int) decimal.Decimal {
	if totalMealUnits <= 0 {
		return decimal.Zero
	}
	return totalApprovedBazaar.DivRound(decimal.NewFromInt(int64(totalMealUnits)), sharePrecision)
}

// FixedCostShare returns one active member's equal share of the cycle's
// fixed costs. A mess with no active members yields zero rather than a
// division fault.
func FixedCostShare(totalFixedCosts decimal.Decimal, activeMembers int) decimal.Decimal {
	if activeMembers <= 0 {
		return decimal.Zero
	}
	return totalFixedCosts.DivRound(decimal.NewFromInt(int64(activeMembers)), sharePrecision)
}

// TotalMealUnits sums meal units over a set of daily records. Dates with
// no record contribute nothing, so a member who joined mid-cycle simply
// has fewer rows.
func TotalMealUnits(meals []models.DailyMeal) int {
	total := 0
	for i := range meals {
		total += meals[i].Units()
	}
	return total
}

// LedgerTotals is the per-member slice of a cycle's ledgers, as read at
// derivation time. Deposit/individual sums must already be filtered to
// approved entries; fixed costs have no approval gate.
type LedgerTotals struct {
	OpeningBalance   decimal.Decimal
	ApprovedDeposits decimal.Decimal
	MealUnits        int
	IndividualCosts  decimal.Decimal
}

// Balance carries every component of a member's derived balance so
// callers (dashboard, snapshots) never need to re-derive a part.
type Balance struct {
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	TotalDeposits   decimal.Decimal `json:"total_deposits"`
	TotalMeals      int             `json:"total_meals"`
	MealRate        decimal.Decimal `json:"meal_rate"`
	MealCost        decimal.Decimal `json:"meal_cost"`
	FixedCostShare  decimal.Decimal `json:"fixed_cost_share"`
	IndividualCosts decimal.Decimal `json:"individual_costs"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
}

// MemberBalance computes one member's balance from their ledger totals and
// the cycle-wide rate and fixed-cost share:
//
//	opening + deposits - meals*rate - fixedShare - individualCosts
func MemberBalance(t LedgerTotals, mealRate, fixedShare decimal.Decimal) Balance {
	mealCost := mealRate.Mul(decimal.NewFromInt(int64(t.MealUnits)))
	current := t.OpeningBalance.
		Add(t.ApprovedDeposits).
		Sub(mealCost).
		Sub(fixedShare).
		Sub(t.IndividualCosts)

	return Balance{
		OpeningBalance:  t.OpeningBalance,
		TotalDeposits:   t.ApprovedDeposits,
		TotalMeals:      t.MealUnits,
		MealRate:        mealRate,
		MealCost:        mealCost,
		FixedCostShare:  fixedShare,
		IndividualCosts: t.IndividualCosts,
		CurrentBalance:  current,
	}
}
