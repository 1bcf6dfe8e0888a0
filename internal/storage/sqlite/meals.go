package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// slotColumn maps a meal slot to its flag column. The mapping is a fixed
// table, never string interpolation of caller input.
func slotColumn(slot models.Slot) (string, error) {
	switch slot {
	case models.SlotBreakfast:
		return "breakfast", nil
	case models.SlotLunch:
		return "lunch", nil
	case models.SlotDinner:
		return "dinner", nil
	}
	return "", fmt.Errorf("unknown meal slot %q", slot)
}

// guestColumn maps a meal slot to its guest-count column.
func guestColumn(slot models.Slot) (string, error) {
	col, err := slotColumn(slot)
	if err != nil {
		return "", err
	}
	return "guest_" + col, nil
}

// upsertMealColumn writes exactly one column of the (cycle, member, date)
// row, creating the row if absent. Column-level update means concurrent
// writes to sibling slots never clobber each other, and the cycle-scoped
// conflict key means a successor cycle whose date range overlaps a closed
// one gets its own rows instead of rewriting the frozen ledger.
func (s *SQLiteStore) upsertMealColumn(ctx context.Context, messID, cycleID, memberID, mealDate, column string, value int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, cycleID); err != nil {
			return err
		}
		now := time.Now().Unix()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_meals (id, mess_id, cycle_id, member_id, meal_date, `+column+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (cycle_id, member_id, meal_date) DO UPDATE SET
				`+column+` = excluded.`+column+`,
				updated_at = excluded.updated_at`,
			uuid.New().String(), messID, cycleID, memberID, mealDate, value, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert meal %s: %w", column, err)
		}
		return nil
	})
}

// UpsertMealSlot sets one slot flag for one member on one date.
func (s *SQLiteStore) UpsertMealSlot(ctx context.Context, messID, cycleID, memberID, mealDate string, slot models.Slot, present bool) error {
	col, err := slotColumn(slot)
	if err != nil {
		return err
	}
	value := 0
	if present {
		value = 1
	}
	return s.upsertMealColumn(ctx, messID, cycleID, memberID, mealDate, col, value)
}

// UpsertGuestCount sets one slot's guest count for one member on one date.
func (s *SQLiteStore) UpsertGuestCount(ctx context.Context, messID, cycleID, memberID, mealDate string, slot models.Slot, count int) error {
	col, err := guestColumn(slot)
	if err != nil {
		return err
	}
	return s.upsertMealColumn(ctx, messID, cycleID, memberID, mealDate, col, count)
}

const mealColumns = `id, mess_id, cycle_id, member_id, meal_date,
	breakfast, lunch, dinner, guest_breakfast, guest_lunch, guest_dinner,
	created_at, updated_at`

func scanMeal(row interface{ Scan(...interface{}) error }) (*models.DailyMeal, error) {
	m := &models.DailyMeal{}
	var breakfast, lunch, dinner int
	err := row.Scan(&m.ID, &m.MessID, &m.CycleID, &m.MemberID, &m.MealDate,
		&breakfast, &lunch, &dinner,
		&m.GuestBreakfast, &m.GuestLunch, &m.GuestDinner,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Breakfast = breakfast != 0
	m.Lunch = lunch != 0
	m.Dinner = dinner != 0
	return m, nil
}

// GetMeal returns the (cycle, member, date) row, or ErrNotFound if the
// member has recorded nothing for that date in the cycle. Callers treat
// absence as all-zero.
func (s *SQLiteStore) GetMeal(ctx context.Context, cycleID, memberID, mealDate string) (*models.DailyMeal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mealColumns+` FROM daily_meals WHERE cycle_id = ? AND member_id = ? AND meal_date = ?`,
		cycleID, memberID, mealDate)
	m, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meal record for %s on %s: %w", memberID, mealDate, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) listMeals(ctx context.Context, query string, args ...interface{}) ([]models.DailyMeal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var meals []models.DailyMeal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meals: %w", err)
	}
	return meals, nil
}

// ListMealsForDate returns every member's row for one date in a cycle.
// Cycle-scoped so that a date covered by both a closed cycle and its
// successor never yields rows from two ledgers.
func (s *SQLiteStore) ListMealsForDate(ctx context.Context, cycleID, mealDate string) ([]models.DailyMeal, error) {
	return s.listMeals(ctx,
		`SELECT `+mealColumns+` FROM daily_meals WHERE cycle_id = ? AND meal_date = ? ORDER BY member_id`,
		cycleID, mealDate)
}

// ListMealsForCycle returns every meal row of a cycle, oldest date first.
func (s *SQLiteStore) ListMealsForCycle(ctx context.Context, cycleID string) ([]models.DailyMeal, error) {
	return s.listMeals(ctx,
		`SELECT `+mealColumns+` FROM daily_meals WHERE cycle_id = ? ORDER BY meal_date, member_id`,
		cycleID)
}

// ListMealsForMember returns one member's meal rows for a cycle.
func (s *SQLiteStore) ListMealsForMember(ctx context.Context, cycleID, memberID string) ([]models.DailyMeal, error) {
	return s.listMeals(ctx,
		`SELECT `+mealColumns+` FROM daily_meals WHERE cycle_id = ? AND member_id = ? ORDER BY meal_date`,
		cycleID, memberID)
}

// BulkSetMeals replaces the full-day meal state of several members at once
// (manager sheet edit). Counts are per-slot totals: 0 means not eating,
// n>0 means the flag is set with n-1 guests. Rows with all-zero state are
// still written so the edit is visible.
func (s *SQLiteStore) BulkSetMeals(ctx context.Context, messID, cycleID, mealDate string, updates []storage.MealUpdate) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, cycleID); err != nil {
			return err
		}
		now := time.Now().Unix()
		for _, u := range updates {
			flag := func(n int) int {
				if n > 0 {
					return 1
				}
				return 0
			}
			guests := func(n int) int {
				if n > 1 {
					return n - 1
				}
				return 0
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO daily_meals (id, mess_id, cycle_id, member_id, meal_date,
					breakfast, lunch, dinner, guest_breakfast, guest_lunch, guest_dinner,
					created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (cycle_id, member_id, meal_date) DO UPDATE SET
					breakfast = excluded.breakfast,
					lunch = excluded.lunch,
					dinner = excluded.dinner,
					guest_breakfast = excluded.guest_breakfast,
					guest_lunch = excluded.guest_lunch,
					guest_dinner = excluded.guest_dinner,
					updated_at = excluded.updated_at`,
				uuid.New().String(), messID, cycleID, u.MemberID, mealDate,
				flag(u.Breakfast), flag(u.Lunch), flag(u.Dinner),
				guests(u.Breakfast), guests(u.Lunch), guests(u.Dinner),
				now, now,
			)
			if err != nil {
				return fmt.Errorf("failed to bulk-set meals for member %s: %w", u.MemberID, err)
			}
		}
		return nil
	})
}
