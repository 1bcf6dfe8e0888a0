package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrahman/messbook/internal/cutoff"
	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// MealService handles meal attendance: slot toggles, guest counts and the
// manager's bulk sheet edit. Cutoffs bind regular members; the manager
// edits freely.
type MealService struct {
	store storage.Store
	clock cutoff.Clock
}

// NewMealService creates a new MealService.
func NewMealService(store storage.Store, clock cutoff.Clock) *MealService {
	if clock == nil {
		clock = cutoff.SystemClock{}
	}
	return &MealService{store: store, clock: clock}
}

// DaySheet is one date's meals for a mess together with the per-slot lock
// state as of now.
type DaySheet struct {
	Date            string             `json:"date"`
	Meals           []models.DailyMeal `json:"meals"`
	BreakfastLocked bool               `json:"breakfast_locked"`
	LunchLocked     bool               `json:"lunch_locked"`
	DinnerLocked    bool               `json:"dinner_locked"`
}

func (s *MealService) checker(ctx context.Context, messID string) (*cutoff.Checker, *models.CutoffConfig, error) {
	mess, err := s.store.GetMess(ctx, messID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.store.GetCutoffConfig(ctx, messID)
	if err != nil {
		return nil, nil, err
	}
	checker, err := cutoff.NewChecker(mess.Timezone, s.clock)
	if err != nil {
		return nil, nil, fmt.Errorf("mess %s has invalid timezone: %w", messID, err)
	}
	return checker, cfg, nil
}

// ToggleMeal sets one of the actor's own slot flags for a date. Regular
// members are bound by the slot's cutoff; the manager bypasses it.
func (s *MealService) ToggleMeal(ctx context.Context, actor Actor, mealDate string, slot models.Slot, present bool) error {
	if !models.ValidSlot(slot) {
		return fmt.Errorf("unknown slot %q: %w", slot, ErrInvalidInput)
	}
	if _, err := time.Parse(models.DateLayout, mealDate); err != nil {
		return fmt.Errorf("bad meal date %q: %w", mealDate, ErrInvalidInput)
	}

	if !actor.IsManager() {
		checker, cfg, err := s.checker(ctx, actor.MessID)
		if err != nil {
			return err
		}
		locked, err := checker.Locked(slot, mealDate, cfg)
		if err != nil {
			return err
		}
		if locked {
			return fmt.Errorf("%s on %s: %w", slot, mealDate, ErrMealLocked)
		}
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return err
	}
	if err := s.store.UpsertMealSlot(ctx, actor.MessID, cycle.ID, actor.MemberID, mealDate, slot, present); err != nil {
		return err
	}

	slog.Info("meal toggled",
		"mess_id", actor.MessID, "member_id", actor.MemberID,
		"date", mealDate, "slot", slot, "present", present)
	logActivity(ctx, s.store, actor, "meal.toggle", fmt.Sprintf("%s %s=%t", mealDate, slot, present))
	return nil
}

// SetGuestMeal sets the actor's guest count for one slot. Guest counts
// are not cutoff-gated; a member can add guests for today's dinner after
// the dinner cutoff has passed.
func (s *MealService) SetGuestMeal(ctx context.Context, actor Actor, mealDate string, slot models.Slot, count int) error {
	if !models.ValidSlot(slot) {
		return fmt.Errorf("unknown slot %q: %w", slot, ErrInvalidInput)
	}
	if count < 0 || count > models.MaxGuestsPerSlot {
		return fmt.Errorf("guest count %d out of range 0..%d: %w",
			count, models.MaxGuestsPerSlot, ErrInvalidInput)
	}
	if _, err := time.Parse(models.DateLayout, mealDate); err != nil {
		return fmt.Errorf("bad meal date %q: %w", mealDate, ErrInvalidInput)
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return err
	}
	if err := s.store.UpsertGuestCount(ctx, actor.MessID, cycle.ID, actor.MemberID, mealDate, slot, count); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "meal.guests", fmt.Sprintf("%s %s=%d", mealDate, slot, count))
	return nil
}

// DaySheet returns every member's meals for a date plus the lock state,
// which the toggle UI uses to grey out passed slots.
func (s *MealService) DaySheet(ctx context.Context, actor Actor, mealDate string) (*DaySheet, error) {
	if _, err := time.Parse(models.DateLayout, mealDate); err != nil {
		return nil, fmt.Errorf("bad meal date %q: %w", mealDate, ErrInvalidInput)
	}
	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}
	meals, err := s.store.ListMealsForDate(ctx, cycle.ID, mealDate)
	if err != nil {
		return nil, err
	}
	checker, cfg, err := s.checker(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}
	b, l, d, err := checker.LockState(mealDate, cfg)
	if err != nil {
		return nil, err
	}
	return &DaySheet{
		Date:            mealDate,
		Meals:           meals,
		BreakfastLocked: b,
		LunchLocked:     l,
		DinnerLocked:    d,
	}, nil
}

// CycleMeals returns the full meal grid for a cycle.
func (s *MealService) CycleMeals(ctx context.Context, actor Actor, cycleID string) ([]models.DailyMeal, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListMealsForCycle(ctx, cycleID)
}

// MemberMeals returns one member's meals in a cycle.
func (s *MealService) MemberMeals(ctx context.Context, actor Actor, cycleID, memberID string) ([]models.DailyMeal, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListMealsForMember(ctx, cycleID, memberID)
}

// ManagerBulkUpdate rewrites a whole day's sheet in one transaction.
// Manager-only, no cutoff. Counts are per-slot totals: 0 clears the slot,
// n sets the flag with n-1 guests.
func (s *MealService) ManagerBulkUpdate(ctx context.Context, actor Actor, mealDate string, updates []storage.MealUpdate) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := time.Parse(models.DateLayout, mealDate); err != nil {
		return fmt.Errorf("bad meal date %q: %w", mealDate, ErrInvalidInput)
	}
	for _, u := range updates {
		for _, n := range []int{u.Breakfast, u.Lunch, u.Dinner} {
			if n < 0 || n > models.MaxGuestsPerSlot+1 {
				return fmt.Errorf("meal count %d for member %s out of range: %w",
					n, u.MemberID, ErrInvalidInput)
			}
		}
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return err
	}
	if err := s.store.BulkSetMeals(ctx, actor.MessID, cycle.ID, mealDate, updates); err != nil {
		return err
	}

	slog.Info("bulk meal update",
		"mess_id", actor.MessID, "date", mealDate, "members", len(updates))
	logActivity(ctx, s.store, actor, "meal.bulk_update", fmt.Sprintf("%s (%d members)", mealDate, len(updates)))
	return nil
}
