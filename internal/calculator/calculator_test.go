package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"github.com/mrahman/messbook/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMealRate(t *testing.T) {
	tests := []struct {
		name   string
		bazaar string
		units  int
		want   string
	}{
		{"simple division", "500", 2, "250"},
		{"zero units yields zero rate", "500", 0, "0"},
		{"negative units yields zero rate", "500", -1, "0"},
		{"zero spend", "0", 10, "0"},
		{"rounds to four places", "100", 3, "33.3333"},
		{"fractional spend", "1234.56", 48, "25.72"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MealRate(dec(tt.bazaar), tt.units)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("MealRate(%s, %d) = %s, want %s", tt.bazaar, tt.units, got, tt.want)
			}
		})
	}
}

func TestFixedCostShare(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		members int
		want    string
	}{
		{"even split", "200", 2, "100"},
		{"no members yields zero", "200", 0, "0"},
		{"uneven split rounds", "100", 3, "33.3333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedCostShare(dec(tt.total), tt.members)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("FixedCostShare(%s, %d) = %s, want %s", tt.total, tt.members, got, tt.want)
			}
		})
	}
}

func TestTotalMealUnits(t *testing.T) {
	meals := []models.DailyMeal{
		{Breakfast: true, Lunch: true, Dinner: true},
		{Lunch: true, GuestLunch: 2},
		{GuestDinner: 1},
		{},
	}
	if got := TotalMealUnits(meals); got != 7 {
		t.Errorf("TotalMealUnits = %d, want 7", got)
	}
	if got := TotalMealUnits(nil); got != 0 {
		t.Errorf("TotalMealUnits(nil) = %d, want 0", got)
	}
}

// Two members, one eats two meals. Bazaar 500 approved, deposit 1000.
// Rate must be 250 and the eater's balance 1000 - 500 = 500.
func TestMemberBalanceScenario(t *testing.T) {
	rate := MealRate(dec("500"), 2)
	if !rate.Equal(dec("250")) {
		t.Fatalf("rate = %s, want 250", rate)
	}

	eater := MemberBalance(LedgerTotals{
		ApprovedDeposits: dec("1000"),
		MealUnits:        2,
	}, rate, decimal.Zero)
	if !eater.MealCost.Equal(dec("500")) {
		t.Errorf("meal cost = %s, want 500", eater.MealCost)
	}
	if !eater.CurrentBalance.Equal(dec("500")) {
		t.Errorf("balance = %s, want 500", eater.CurrentBalance)
	}

	// The other member ate nothing and deposited nothing.
	idle := MemberBalance(LedgerTotals{}, rate, decimal.Zero)
	if !idle.CurrentBalance.IsZero() {
		t.Errorf("idle balance = %s, want 0", idle.CurrentBalance)
	}
}

func TestMemberBalanceComponents(t *testing.T) {
	bal := MemberBalance(LedgerTotals{
		OpeningBalance:   dec("-50"),
		ApprovedDeposits: dec("1200"),
		MealUnits:        30,
		IndividualCosts:  dec("75.50"),
	}, dec("32.5"), dec("110"))

	// -50 + 1200 - 30*32.5 - 110 - 75.50 = -10.50
	if !bal.CurrentBalance.Equal(dec("-10.50")) {
		t.Errorf("balance = %s, want -10.50", bal.CurrentBalance)
	}
	if !bal.MealCost.Equal(dec("975")) {
		t.Errorf("meal cost = %s, want 975", bal.MealCost)
	}
	if bal.TotalMeals != 30 {
		t.Errorf("total meals = %d, want 30", bal.TotalMeals)
	}
}

func TestMealRateProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")
		bazaar := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
		units := rapid.IntRange(0, 5000).Draw(t, "units")

		rate := MealRate(bazaar, units)

		if rate.IsNegative() {
			t.Fatalf("rate %s is negative", rate)
		}
		if units == 0 && !rate.IsZero() {
			t.Fatalf("zero units gave nonzero rate %s", rate)
		}
		// Re-derivation with the same inputs is exact.
		if again := MealRate(bazaar, units); !again.Equal(rate) {
			t.Fatalf("re-derivation differs: %s vs %s", again, rate)
		}
		// Total meal cost never exceeds spend by more than rounding slack.
		if units > 0 {
			slack := decimal.New(int64(units), -4) // half-ulp per unit, rounded up
			total := rate.Mul(decimal.NewFromInt(int64(units)))
			if total.Sub(bazaar).Abs().GreaterThan(slack) {
				t.Fatalf("units*rate = %s drifts from %s by more than %s", total, bazaar, slack)
			}
		}
	})
}

func TestMemberBalanceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		deposits := decimal.NewFromInt(rapid.Int64Range(0, 100_000).Draw(t, "deposits"))
		opening := decimal.NewFromInt(rapid.Int64Range(-10_000, 10_000).Draw(t, "opening"))
		units := rapid.IntRange(0, 200).Draw(t, "units")
		rate := decimal.NewFromInt(rapid.Int64Range(0, 500).Draw(t, "rate"))
		fixedShare := decimal.NewFromInt(rapid.Int64Range(0, 2000).Draw(t, "fixed"))
		individual := decimal.NewFromInt(rapid.Int64Range(0, 5000).Draw(t, "individual"))

		bal := MemberBalance(LedgerTotals{
			OpeningBalance:   opening,
			ApprovedDeposits: deposits,
			MealUnits:        units,
			IndividualCosts:  individual,
		}, rate, fixedShare)

		// The reported components must reconstruct the balance exactly.
		rebuilt := bal.OpeningBalance.
			Add(bal.TotalDeposits).
			Sub(bal.MealCost).
			Sub(bal.FixedCostShare).
			Sub(bal.IndividualCosts)
		if !rebuilt.Equal(bal.CurrentBalance) {
			t.Fatalf("components rebuild to %s, balance says %s", rebuilt, bal.CurrentBalance)
		}
		// More deposits never lower the balance.
		richer := MemberBalance(LedgerTotals{
			OpeningBalance:   opening,
			ApprovedDeposits: deposits.Add(decimal.NewFromInt(1)),
			MealUnits:        units,
			IndividualCosts:  individual,
		}, rate, fixedShare)
		if richer.CurrentBalance.LessThan(bal.CurrentBalance) {
			t.Fatalf("extra deposit lowered balance: %s -> %s", bal.CurrentBalance, richer.CurrentBalance)
		}
	})
}
