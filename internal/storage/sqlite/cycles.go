package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/calculator"
	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// standalone or inside the close transaction.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const cycleColumns = `id, mess_id, name, start_date, end_date, status, final_meal_rate, created_at, updated_at`

func scanCycle(row interface{ Scan(...interface{}) error }) (*models.Cycle, error) {
	c := &models.Cycle{}
	var status string
	var finalRate sql.NullString
	err := row.Scan(&c.ID, &c.MessID, &c.Name, &c.StartDate, &c.EndDate,
		&status, &finalRate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.CycleStatus(status)
	if finalRate.Valid {
		rate, err := scanDecimal(finalRate.String)
		if err != nil {
			return nil, err
		}
		c.FinalMealRate = &rate
	}
	return c, nil
}

func insertCycle(ctx context.Context, tx *sql.Tx, c *models.Cycle) error {
	var finalRate interface{}
	if c.FinalMealRate != nil {
		finalRate = c.FinalMealRate.String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mess_cycles (id, mess_id, name, start_date, end_date, status, final_meal_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MessID, c.Name, c.StartDate, c.EndDate, string(c.Status),
		finalRate, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		// uniq_open_cycle_per_mess: a second open cycle for this mess.
		return fmt.Errorf("mess %s already has an open cycle: %w", c.MessID, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}
	return nil
}

// GetCycle retrieves a cycle by ID.
func (s *SQLiteStore) GetCycle(ctx context.Context, cycleID string) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM mess_cycles WHERE id = ?`, cycleID)
	c, err := scanCycle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cycle %s: %w", cycleID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return c, nil
}

// OpenCycle returns the mess's single open cycle, or ErrNoOpenCycle.
func (s *SQLiteStore) OpenCycle(ctx context.Context, messID string) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM mess_cycles WHERE mess_id = ? AND status = 'open'`, messID)
	c, err := scanCycle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mess %s: %w", messID, storage.ErrNoOpenCycle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open cycle: %w", err)
	}
	return c, nil
}

// ListCycles returns all cycles of a mess, newest first.
func (s *SQLiteStore) ListCycles(ctx context.Context, messID string) ([]models.Cycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM mess_cycles WHERE mess_id = ? ORDER BY start_date DESC`, messID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []models.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cycles: %w", err)
	}
	return cycles, nil
}

// RenameCycle updates a cycle's display name.
func (s *SQLiteStore) RenameCycle(ctx context.Context, cycleID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mess_cycles SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().Unix(), cycleID)
	if err != nil {
		return fmt.Errorf("failed to rename cycle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrNotFound)
	}
	return nil
}

// ListSnapshots returns the month snapshots of a closed cycle.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, cycleID string) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, member_id, total_meals, meal_rate, total_meal_cost,
		       total_fixed_cost, total_individual_cost, total_deposits,
		       opening_balance, closing_balance, created_at
		FROM month_snapshots WHERE cycle_id = ? ORDER BY member_id`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(rows *sql.Rows) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	var rate, mealCost, fixedCost, indCost, deposits, opening, closing string
	err := rows.Scan(&snap.ID, &snap.CycleID, &snap.MemberID, &snap.TotalMeals,
		&rate, &mealCost, &fixedCost, &indCost, &deposits, &opening, &closing,
		&snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snap.MealRate, rate},
		{&snap.TotalMealCost, mealCost},
		{&snap.TotalFixedCost, fixedCost},
		{&snap.TotalIndividualCost, indCost},
		{&snap.TotalDeposits, deposits},
		{&snap.OpeningBalance, opening},
		{&snap.ClosingBalance, closing},
	} {
		d, err := scanDecimal(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}
	return snap, nil
}

// CloseCycle performs the month-close as a single transaction:
//
//  1. freeze the meal rate as of this instant
//  2. write one snapshot per active member at the frozen rate
//  3. mark the cycle closed (guarded so a concurrent close loses cleanly)
//  4. open the successor cycle with opening balances carried forward
//
// Any failure rolls the whole thing back: no half-closed cycle, no orphan
// successor, no partial snapshot set.
func (s *SQLiteStore) CloseCycle(ctx context.Context, cycleID string, now time.Time, nextName, nextStart, nextEnd string) (*models.Cycle, []models.Snapshot, error) {
	var successor *models.Cycle
	var snapshots []models.Snapshot

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+cycleColumns+` FROM mess_cycles WHERE id = ?`, cycleID)
		cycle, err := scanCycle(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load cycle: %w", err)
		}
		if cycle.Status != models.CycleOpen {
			return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrCycleClosed)
		}

		members, err := listActiveMembersTx(ctx, tx, cycle.MessID)
		if err != nil {
			return err
		}

		totals, err := cycleTotals(ctx, tx, cycleID, cycle.MessID)
		if err != nil {
			return err
		}

		rate := calculator.MealRate(totals.ApprovedBazaar, totals.MealUnits)
		fixedShare := calculator.FixedCostShare(totals.FixedCosts, len(members))

		nowUnix := now.Unix()
		for _, m := range members {
			mt, err := memberTotals(ctx, tx, cycleID, m.ID)
			if err != nil {
				return err
			}
			bal := calculator.MemberBalance(calculator.LedgerTotals{
				OpeningBalance:   mt.OpeningBalance,
				ApprovedDeposits: mt.ApprovedDeposits,
				MealUnits:        mt.MealUnits,
				IndividualCosts:  mt.IndividualCosts,
			}, rate, fixedShare)

			snap := models.Snapshot{
				ID:                  uuid.New().String(),
				CycleID:             cycleID,
				MemberID:            m.ID,
				TotalMeals:          bal.TotalMeals,
				MealRate:            bal.MealRate,
				TotalMealCost:       bal.MealCost,
				TotalFixedCost:      bal.FixedCostShare,
				TotalIndividualCost: bal.IndividualCosts,
				TotalDeposits:       bal.TotalDeposits,
				OpeningBalance:      bal.OpeningBalance,
				ClosingBalance:      bal.CurrentBalance,
				CreatedAt:           nowUnix,
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO month_snapshots (id, cycle_id, member_id, total_meals, meal_rate,
					total_meal_cost, total_fixed_cost, total_individual_cost, total_deposits,
					opening_balance, closing_balance, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				snap.ID, snap.CycleID, snap.MemberID, snap.TotalMeals,
				snap.MealRate.String(), snap.TotalMealCost.String(),
				snap.TotalFixedCost.String(), snap.TotalIndividualCost.String(),
				snap.TotalDeposits.String(), snap.OpeningBalance.String(),
				snap.ClosingBalance.String(), snap.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot for member %s: %w", m.ID, err)
			}
			snapshots = append(snapshots, snap)
		}

		// The status guard makes a lost race fail cleanly instead of
		// closing twice.
		res, err := tx.ExecContext(ctx, `
			UPDATE mess_cycles SET status = 'closed', final_meal_rate = ?, updated_at = ?
			WHERE id = ? AND status = 'open'`,
			rate.String(), nowUnix, cycleID,
		)
		if err != nil {
			return fmt.Errorf("failed to close cycle: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrCycleClosed)
		}

		successor = &models.Cycle{
			ID:        uuid.New().String(),
			MessID:    cycle.MessID,
			Name:      nextName,
			StartDate: nextStart,
			EndDate:   nextEnd,
			Status:    models.CycleOpen,
			CreatedAt: nowUnix,
			UpdatedAt: nowUnix,
		}
		if err := insertCycle(ctx, tx, successor); err != nil {
			return err
		}

		// Balances roll forward: closing becomes the successor's opening.
		for _, snap := range snapshots {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cycle_openings (cycle_id, member_id, opening_balance)
				VALUES (?, ?, ?)`,
				successor.ID, snap.MemberID, snap.ClosingBalance.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to seed opening balance for member %s: %w", snap.MemberID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return successor, snapshots, nil
}

func listActiveMembersTx(ctx context.Context, tx *sql.Tx, messID string) ([]models.Member, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM mess_members WHERE mess_id = ? AND status = 'active' ORDER BY join_date`,
		messID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}
