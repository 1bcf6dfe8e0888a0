package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// CreateBazaarExpense writes the expense header and all line items in one
// transaction. A failed item insert rolls the header back, so a header
// with zero items can never be observed.
func (s *SQLiteStore) CreateBazaarExpense(ctx context.Context, expense *models.BazaarExpense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, expense.CycleID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bazaar_expenses (id, mess_id, cycle_id, shopper_id, expense_date,
				total_amount, notes, approval_status, approved_by, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.MessID, expense.CycleID, expense.ShopperID,
			expense.ExpenseDate, expense.TotalAmount.String(), nullable(expense.Notes),
			string(expense.ApprovalStatus), nullable(expense.ApprovedBy),
			expense.CreatedBy, expense.CreatedAt, expense.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bazaar expense: %w", err)
		}

		for i := range expense.Items {
			item := &expense.Items[i]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO bazaar_items (id, expense_id, item_name, quantity, unit, unit_price, total_price, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, expense.ID, item.ItemName, item.Quantity.String(),
				item.Unit, item.UnitPrice.String(), item.TotalPrice.String(),
				item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bazaar item %q: %w", item.ItemName, err)
			}
		}
		return nil
	})
}

// ListBazaarExpenses returns a cycle's bazaar expenses with their items,
// newest shopping date first, any approval status.
func (s *SQLiteStore) ListBazaarExpenses(ctx context.Context, cycleID string) ([]models.BazaarExpense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mess_id, cycle_id, shopper_id, expense_date, total_amount,
		       notes, approval_status, approved_by, created_by, created_at, updated_at
		FROM bazaar_expenses WHERE cycle_id = ? ORDER BY expense_date DESC, created_at DESC`,
		cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bazaar expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.BazaarExpense
	for rows.Next() {
		var e models.BazaarExpense
		var total string
		var notes, approvedBy sql.NullString
		var status string
		if err := rows.Scan(&e.ID, &e.MessID, &e.CycleID, &e.ShopperID,
			&e.ExpenseDate, &total, &notes, &status, &approvedBy,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bazaar expense: %w", err)
		}
		if e.TotalAmount, err = scanDecimal(total); err != nil {
			return nil, err
		}
		e.Notes = fromNull(notes)
		e.ApprovedBy = fromNull(approvedBy)
		e.ApprovalStatus = models.ApprovalStatus(status)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bazaar expenses: %w", err)
	}

	for i := range expenses {
		items, err := s.listBazaarItems(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Items = items
	}
	return expenses, nil
}

func (s *SQLiteStore) listBazaarItems(ctx context.Context, expenseID string) ([]models.BazaarItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expense_id, item_name, quantity, unit, unit_price, total_price, created_at
		FROM bazaar_items WHERE expense_id = ? ORDER BY created_at`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bazaar items: %w", err)
	}
	defer rows.Close()

	var items []models.BazaarItem
	for rows.Next() {
		var it models.BazaarItem
		var qty, unitPrice, totalPrice string
		if err := rows.Scan(&it.ID, &it.ExpenseID, &it.ItemName, &qty,
			&it.Unit, &unitPrice, &totalPrice, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bazaar item: %w", err)
		}
		if it.Quantity, err = scanDecimal(qty); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = scanDecimal(unitPrice); err != nil {
			return nil, err
		}
		if it.TotalPrice, err = scanDecimal(totalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bazaar items: %w", err)
	}
	return items, nil
}

// CreateDeposit inserts a deposit row.
func (s *SQLiteStore) CreateDeposit(ctx context.Context, dep *models.Deposit) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, dep.CycleID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO deposits (id, mess_id, cycle_id, member_id, amount, payment_method,
				reference_no, notes, approval_status, approved_by, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dep.ID, dep.MessID, dep.CycleID, dep.MemberID, dep.Amount.String(),
			string(dep.PaymentMethod), nullable(dep.ReferenceNo), nullable(dep.Notes),
			string(dep.ApprovalStatus), nullable(dep.ApprovedBy), dep.CreatedBy, dep.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert deposit: %w", err)
		}
		return nil
	})
}

// ListDeposits returns a cycle's deposits, newest first, any status.
func (s *SQLiteStore) ListDeposits(ctx context.Context, cycleID string) ([]models.Deposit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mess_id, cycle_id, member_id, amount, payment_method,
		       reference_no, notes, approval_status, approved_by, created_by, created_at
		FROM deposits WHERE cycle_id = ? ORDER BY created_at DESC`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []models.Deposit
	for rows.Next() {
		var d models.Deposit
		var amount, method, status string
		var ref, notes, approvedBy sql.NullString
		if err := rows.Scan(&d.ID, &d.MessID, &d.CycleID, &d.MemberID, &amount,
			&method, &ref, &notes, &status, &approvedBy, &d.CreatedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		if d.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		d.PaymentMethod = models.PaymentMethod(method)
		d.ApprovalStatus = models.ApprovalStatus(status)
		d.ReferenceNo = fromNull(ref)
		d.Notes = fromNull(notes)
		d.ApprovedBy = fromNull(approvedBy)
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}
	return deposits, nil
}

// CreateFixedCost inserts a fixed cost. No approval gate: it counts
// immediately.
func (s *SQLiteStore) CreateFixedCost(ctx context.Context, fc *models.FixedCost) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, fc.CycleID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fixed_costs (id, mess_id, cycle_id, cost_type, description, amount,
				created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			fc.ID, fc.MessID, fc.CycleID, string(fc.CostType), nullable(fc.Description),
			fc.Amount.String(), fc.CreatedBy, fc.CreatedAt, fc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fixed cost: %w", err)
		}
		return nil
	})
}

// ListFixedCosts returns a cycle's fixed costs, newest first.
func (s *SQLiteStore) ListFixedCosts(ctx context.Context, cycleID string) ([]models.FixedCost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mess_id, cycle_id, cost_type, description, amount, created_by, created_at, updated_at
		FROM fixed_costs WHERE cycle_id = ? ORDER BY created_at DESC`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixed costs: %w", err)
	}
	defer rows.Close()

	var costs []models.FixedCost
	for rows.Next() {
		var fc models.FixedCost
		var costType, amount string
		var desc sql.NullString
		if err := rows.Scan(&fc.ID, &fc.MessID, &fc.CycleID, &costType, &desc,
			&amount, &fc.CreatedBy, &fc.CreatedAt, &fc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fixed cost: %w", err)
		}
		if fc.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		fc.CostType = models.FixedCostType(costType)
		fc.Description = fromNull(desc)
		costs = append(costs, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fixed costs: %w", err)
	}
	return costs, nil
}

// CreateIndividualCost inserts an individual cost row.
func (s *SQLiteStore) CreateIndividualCost(ctx context.Context, ic *models.IndividualCost) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOpenCycle(ctx, tx, ic.CycleID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO individual_costs (id, mess_id, cycle_id, member_id, description, amount,
				approval_status, approved_by, rejection_reason, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ic.ID, ic.MessID, ic.CycleID, ic.MemberID, ic.Description, ic.Amount.String(),
			string(ic.ApprovalStatus), nullable(ic.ApprovedBy), nullable(ic.RejectionReason),
			ic.CreatedBy, ic.CreatedAt, ic.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert individual cost: %w", err)
		}
		return nil
	})
}

// ListIndividualCosts returns a cycle's individual costs, newest first.
func (s *SQLiteStore) ListIndividualCosts(ctx context.Context, cycleID string) ([]models.IndividualCost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mess_id, cycle_id, member_id, description, amount, approval_status,
		       approved_by, rejection_reason, created_by, created_at, updated_at
		FROM individual_costs WHERE cycle_id = ? ORDER BY created_at DESC`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list individual costs: %w", err)
	}
	defer rows.Close()

	var costs []models.IndividualCost
	for rows.Next() {
		var ic models.IndividualCost
		var amount, status string
		var approvedBy, reason sql.NullString
		if err := rows.Scan(&ic.ID, &ic.MessID, &ic.CycleID, &ic.MemberID,
			&ic.Description, &amount, &status, &approvedBy, &reason,
			&ic.CreatedBy, &ic.CreatedAt, &ic.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan individual cost: %w", err)
		}
		if ic.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		ic.ApprovalStatus = models.ApprovalStatus(status)
		ic.ApprovedBy = fromNull(approvedBy)
		ic.RejectionReason = fromNull(reason)
		costs = append(costs, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate individual costs: %w", err)
	}
	return costs, nil
}

// setApproval transitions one entry from pending to a terminal status.
// The WHERE guard makes a second transition fail with ErrAlreadyFinalized
// instead of silently rewriting history.
func (s *SQLiteStore) setApproval(ctx context.Context, table, id string, status models.ApprovalStatus, extra string, extraArgs ...interface{}) error {
	query := `UPDATE ` + table + ` SET approval_status = ?` + extra +
		` WHERE id = ? AND approval_status = 'pending'`
	args := append([]interface{}{string(status)}, extraArgs...)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx,
		`SELECT approval_status FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("entry %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check approval status: %w", err)
	}
	return fmt.Errorf("entry %s is %s: %w", id, current, storage.ErrAlreadyFinalized)
}

// SetBazaarApproval finalizes a pending bazaar expense.
func (s *SQLiteStore) SetBazaarApproval(ctx context.Context, expenseID string, status models.ApprovalStatus, approvedBy string) error {
	return s.setApproval(ctx, "bazaar_expenses", expenseID, status,
		", approved_by = ?", approvedBy)
}

// SetDepositApproval finalizes a pending deposit.
func (s *SQLiteStore) SetDepositApproval(ctx context.Context, depositID string, status models.ApprovalStatus, approvedBy string) error {
	return s.setApproval(ctx, "deposits", depositID, status,
		", approved_by = ?", approvedBy)
}

// SetIndividualCostApproval finalizes a pending individual cost, recording
// the rejection reason when given.
func (s *SQLiteStore) SetIndividualCostApproval(ctx context.Context, costID string, status models.ApprovalStatus, approvedBy, rejectionReason string) error {
	return s.setApproval(ctx, "individual_costs", costID, status,
		", approved_by = ?, rejection_reason = ?", approvedBy, nullable(rejectionReason))
}

// sumAmounts reads one TEXT money column and sums it as decimals in Go.
// SQLite would happily SUM() the text as floats; we never let it.
func sumAmounts(ctx context.Context, q queryer, query string, args ...interface{}) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := scanDecimal(raw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return total, nil
}

// mealUnitSum counts meal units (flags plus guests) with an integer SQL sum.
func mealUnitSum(ctx context.Context, q queryer, where string, args ...interface{}) (int, error) {
	var units int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(breakfast + lunch + dinner + guest_breakfast + guest_lunch + guest_dinner), 0)
		FROM daily_meals WHERE `+where, args...).Scan(&units)
	if err != nil {
		return 0, fmt.Errorf("failed to sum meal units: %w", err)
	}
	return units, nil
}

func cycleTotals(ctx context.Context, q queryer, cycleID, messID string) (*storage.CycleTotals, error) {
	bazaar, err := sumAmounts(ctx, q,
		`SELECT total_amount FROM bazaar_expenses WHERE cycle_id = ? AND approval_status = 'approved'`,
		cycleID)
	if err != nil {
		return nil, err
	}
	fixed, err := sumAmounts(ctx, q,
		`SELECT amount FROM fixed_costs WHERE cycle_id = ?`, cycleID)
	if err != nil {
		return nil, err
	}
	units, err := mealUnitSum(ctx, q, `cycle_id = ?`, cycleID)
	if err != nil {
		return nil, err
	}
	var active int
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mess_members WHERE mess_id = ? AND status = 'active'`,
		messID).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}
	return &storage.CycleTotals{
		ApprovedBazaar: bazaar,
		FixedCosts:     fixed,
		MealUnits:      units,
		ActiveMembers:  active,
	}, nil
}

func memberTotals(ctx context.Context, q queryer, cycleID, memberID string) (*storage.MemberTotals, error) {
	opening := decimal.Zero
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT opening_balance FROM cycle_openings WHERE cycle_id = ? AND member_id = ?`,
		cycleID, memberID).Scan(&raw)
	if err == nil {
		if opening, err = scanDecimal(raw); err != nil {
			return nil, err
		}
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get opening balance: %w", err)
	}
	// No row means a first cycle or a mid-cycle joiner: opening is zero.

	deposits, err := sumAmounts(ctx, q,
		`SELECT amount FROM deposits WHERE cycle_id = ? AND member_id = ? AND approval_status = 'approved'`,
		cycleID, memberID)
	if err != nil {
		return nil, err
	}
	individual, err := sumAmounts(ctx, q,
		`SELECT amount FROM individual_costs WHERE cycle_id = ? AND member_id = ? AND approval_status = 'approved'`,
		cycleID, memberID)
	if err != nil {
		return nil, err
	}
	units, err := mealUnitSum(ctx, q, `cycle_id = ? AND member_id = ?`, cycleID, memberID)
	if err != nil {
		return nil, err
	}
	return &storage.MemberTotals{
		OpeningBalance:   opening,
		ApprovedDeposits: deposits,
		MealUnits:        units,
		IndividualCosts:  individual,
	}, nil
}

// CycleTotals reads the cycle-wide ledger sums for the rate calculation.
func (s *SQLiteStore) CycleTotals(ctx context.Context, cycleID string) (*storage.CycleTotals, error) {
	cycle, err := s.GetCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return cycleTotals(ctx, s.db, cycleID, cycle.MessID)
}

// MemberTotals reads one member's ledger sums for the balance calculation.
func (s *SQLiteStore) MemberTotals(ctx context.Context, cycleID, memberID string) (*storage.MemberTotals, error) {
	return memberTotals(ctx, s.db, cycleID, memberID)
}

// AppendActivity records one audit-trail row.
func (s *SQLiteStore) AppendActivity(ctx context.Context, entry *models.ActivityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, mess_id, actor_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.MessID, nullable(entry.ActorID), entry.Action,
		nullable(entry.Details), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListActivity returns a mess's most recent audit entries.
func (s *SQLiteStore) ListActivity(ctx context.Context, messID string, limit int) ([]models.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mess_id, actor_id, action, details, created_at
		FROM activity_log WHERE mess_id = ? ORDER BY created_at DESC LIMIT ?`,
		messID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var actor, details sql.NullString
		if err := rows.Scan(&e.ID, &e.MessID, &actor, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.ActorID = fromNull(actor)
		e.Details = fromNull(details)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity: %w", err)
	}
	return entries, nil
}
