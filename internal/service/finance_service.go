package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/calculator"
	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// FinanceService answers the money questions: current rate, member
// balances, overview and dashboard aggregates. Every answer is derived
// fresh from the ledgers; nothing here writes.
type FinanceService struct {
	store storage.Store
}

// NewFinanceService creates a new FinanceService.
func NewFinanceService(store storage.Store) *FinanceService {
	return &FinanceService{store: store}
}

// MemberBalance is one member's derived balance with identity attached.
type MemberBalance struct {
	MemberID string `json:"member_id"`
	calculator.Balance
}

// MessOverview is the cycle-level financial summary.
type MessOverview struct {
	Cycle          *models.Cycle   `json:"cycle"`
	MealRate       decimal.Decimal `json:"meal_rate"`
	FixedCostShare decimal.Decimal `json:"fixed_cost_share"`
	TotalBazaar    decimal.Decimal `json:"total_bazaar"`
	TotalFixed     decimal.Decimal `json:"total_fixed"`
	TotalMealUnits int             `json:"total_meal_units"`
	ActiveMembers  int             `json:"active_members"`
}

// DashboardStats is the landing-page aggregate: overview plus today's
// meal units and cycle progress.
type DashboardStats struct {
	Overview       MessOverview `json:"overview"`
	TodayMealUnits int          `json:"today_meal_units"`
	DaysElapsed    int          `json:"days_elapsed"`
	DaysTotal      int          `json:"days_total"`
}

// rateAndShare derives the cycle rate and fixed share from one totals read.
func rateAndShare(totals *storage.CycleTotals) (decimal.Decimal, decimal.Decimal) {
	rate := calculator.MealRate(totals.ApprovedBazaar, totals.MealUnits)
	share := calculator.FixedCostShare(totals.FixedCosts, totals.ActiveMembers)
	return rate, share
}

// CurrentMealRate returns the open cycle's rate as of now. It changes as
// meals and approvals land; only a cycle close freezes it.
func (s *FinanceService) CurrentMealRate(ctx context.Context, actor Actor) (decimal.Decimal, error) {
	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return decimal.Zero, err
	}
	totals, err := s.store.CycleTotals(ctx, cycle.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return calculator.MealRate(totals.ApprovedBazaar, totals.MealUnits), nil
}

// Balance derives one member's balance for a cycle.
func (s *FinanceService) Balance(ctx context.Context, actor Actor, cycleID, memberID string) (*MemberBalance, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	totals, err := s.store.CycleTotals(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	rate, share := rateAndShare(totals)

	mt, err := s.store.MemberTotals(ctx, cycleID, memberID)
	if err != nil {
		return nil, err
	}
	bal := calculator.MemberBalance(calculator.LedgerTotals{
		OpeningBalance:   mt.OpeningBalance,
		ApprovedDeposits: mt.ApprovedDeposits,
		MealUnits:        mt.MealUnits,
		IndividualCosts:  mt.IndividualCosts,
	}, rate, share)

	return &MemberBalance{MemberID: memberID, Balance: bal}, nil
}

// AllBalances derives every active member's balance for a cycle in one
// pass, all at the same rate.
func (s *FinanceService) AllBalances(ctx context.Context, actor Actor, cycleID string) ([]MemberBalance, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	totals, err := s.store.CycleTotals(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	rate, share := rateAndShare(totals)

	members, err := s.store.ListMembers(ctx, actor.MessID, true)
	if err != nil {
		return nil, err
	}

	balances := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		mt, err := s.store.MemberTotals(ctx, cycleID, m.ID)
		if err != nil {
			return nil, err
		}
		bal := calculator.MemberBalance(calculator.LedgerTotals{
			OpeningBalance:   mt.OpeningBalance,
			ApprovedDeposits: mt.ApprovedDeposits,
			MealUnits:        mt.MealUnits,
			IndividualCosts:  mt.IndividualCosts,
		}, rate, share)
		balances = append(balances, MemberBalance{MemberID: m.ID, Balance: bal})
	}
	return balances, nil
}

// Overview summarizes the open cycle's finances.
func (s *FinanceService) Overview(ctx context.Context, actor Actor) (*MessOverview, error) {
	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}
	return s.overviewFor(ctx, cycle)
}

func (s *FinanceService) overviewFor(ctx context.Context, cycle *models.Cycle) (*MessOverview, error) {
	totals, err := s.store.CycleTotals(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	rate, share := rateAndShare(totals)
	return &MessOverview{
		Cycle:          cycle,
		MealRate:       rate,
		FixedCostShare: share,
		TotalBazaar:    totals.ApprovedBazaar,
		TotalFixed:     totals.FixedCosts,
		TotalMealUnits: totals.MealUnits,
		ActiveMembers:  totals.ActiveMembers,
	}, nil
}

// Dashboard returns the landing-page aggregate for the open cycle.
func (s *FinanceService) Dashboard(ctx context.Context, actor Actor, today string) (*DashboardStats, error) {
	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}
	overview, err := s.overviewFor(ctx, cycle)
	if err != nil {
		return nil, err
	}

	todayMeals, err := s.store.ListMealsForDate(ctx, cycle.ID, today)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Overview:       *overview,
		TodayMealUnits: calculator.TotalMealUnits(todayMeals),
	}

	start, err1 := time.Parse(models.DateLayout, cycle.StartDate)
	end, err2 := time.Parse(models.DateLayout, cycle.EndDate)
	now, err3 := time.Parse(models.DateLayout, today)
	if err1 == nil && err2 == nil && err3 == nil {
		stats.DaysTotal = int(end.Sub(start).Hours()/24) + 1
		elapsed := int(now.Sub(start).Hours()/24) + 1
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed > stats.DaysTotal {
			elapsed = stats.DaysTotal
		}
		stats.DaysElapsed = elapsed
	}
	return stats, nil
}

// Snapshots returns the frozen per-member rows of a closed cycle.
func (s *FinanceService) Snapshots(ctx context.Context, actor Actor, cycleID string) ([]models.Snapshot, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, cycleID)
}
