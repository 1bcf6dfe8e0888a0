package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// CreateMess atomically bootstraps a mess: the mess row, its founding
// manager membership, the first open cycle, and the default cutoff config.
func (s *SQLiteStore) CreateMess(ctx context.Context, mess *models.Mess, manager *models.Member, firstCycle *models.Cycle) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messes (id, name, address, created_by, timezone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			mess.ID, mess.Name, nullable(mess.Address), mess.CreatedBy,
			mess.Timezone, mess.CreatedAt, mess.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert mess: %w", err)
		}

		if err := insertMember(ctx, tx, manager); err != nil {
			return err
		}

		if err := insertCycle(ctx, tx, firstCycle); err != nil {
			return err
		}

		cfg := models.DefaultCutoffConfig(mess.ID)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO meal_cutoff_config (mess_id, breakfast_cutoff, lunch_cutoff, dinner_cutoff)
			VALUES (?, ?, ?, ?)`,
			cfg.MessID, cfg.BreakfastCutoff, cfg.LunchCutoff, cfg.DinnerCutoff,
		)
		if err != nil {
			return fmt.Errorf("failed to insert cutoff config: %w", err)
		}
		return nil
	})
}

// GetMess retrieves a mess by ID.
func (s *SQLiteStore) GetMess(ctx context.Context, messID string) (*models.Mess, error) {
	mess := &models.Mess{}
	var address sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, created_by, timezone, created_at, updated_at
		 FROM messes WHERE id = ?`, messID,
	).Scan(&mess.ID, &mess.Name, &address, &mess.CreatedBy,
		&mess.Timezone, &mess.CreatedAt, &mess.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mess %s: %w", messID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mess: %w", err)
	}
	mess.Address = fromNull(address)
	return mess, nil
}

// GetCutoffConfig retrieves the meal cutoff configuration for a mess,
// falling back to the defaults if the row is missing.
func (s *SQLiteStore) GetCutoffConfig(ctx context.Context, messID string) (*models.CutoffConfig, error) {
	cfg := &models.CutoffConfig{}
	err := s.db.QueryRowContext(ctx,
		`SELECT mess_id, breakfast_cutoff, lunch_cutoff, dinner_cutoff
		 FROM meal_cutoff_config WHERE mess_id = ?`, messID,
	).Scan(&cfg.MessID, &cfg.BreakfastCutoff, &cfg.LunchCutoff, &cfg.DinnerCutoff)

	if err == sql.ErrNoRows {
		return models.DefaultCutoffConfig(messID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cutoff config: %w", err)
	}
	return cfg, nil
}

// UpdateCutoffConfig upserts the cutoff configuration for a mess.
func (s *SQLiteStore) UpdateCutoffConfig(ctx context.Context, cfg *models.CutoffConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_cutoff_config (mess_id, breakfast_cutoff, lunch_cutoff, dinner_cutoff)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (mess_id) DO UPDATE SET
			breakfast_cutoff = excluded.breakfast_cutoff,
			lunch_cutoff = excluded.lunch_cutoff,
			dinner_cutoff = excluded.dinner_cutoff`,
		cfg.MessID, cfg.BreakfastCutoff, cfg.LunchCutoff, cfg.DinnerCutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to update cutoff config: %w", err)
	}
	return nil
}

// AddMember inserts a new membership row.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertMember(ctx, tx, member)
	})
}

func insertMember(ctx context.Context, tx *sql.Tx, m *models.Member) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO mess_members (id, mess_id, user_id, role, status, join_date, leave_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.MessID, m.UserID, string(m.Role), string(m.Status),
		m.JoinDate, nullable(m.LeaveDate), m.CreatedAt, m.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already in mess %s: %w", m.UserID, m.MessID, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

const memberColumns = `id, mess_id, user_id, role, status, join_date, leave_date, created_at, updated_at`

func scanMember(row interface{ Scan(...interface{}) error }) (*models.Member, error) {
	m := &models.Member{}
	var leaveDate sql.NullString
	var role, status string
	err := row.Scan(&m.ID, &m.MessID, &m.UserID, &role, &status,
		&m.JoinDate, &leaveDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	m.Status = models.MemberStatus(status)
	m.LeaveDate = fromNull(leaveDate)
	return m, nil
}

// GetMember retrieves a membership by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM mess_members WHERE id = ?`, memberID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMemberByUser resolves a user's membership within a mess.
func (s *SQLiteStore) GetMemberByUser(ctx context.Context, messID, userID string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM mess_members WHERE mess_id = ? AND user_id = ?`,
		messID, userID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s in mess %s: %w", userID, messID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by user: %w", err)
	}
	return m, nil
}

// ListMembers returns the mess's members, managers first.
func (s *SQLiteStore) ListMembers(ctx context.Context, messID string, activeOnly bool) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM mess_members WHERE mess_id = ?`
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY role, join_date`

	rows, err := s.db.QueryContext(ctx, query, messID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
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

// TransferManager demotes fromMemberID to member and promotes toMemberID
// to manager in one transaction. At no point does the mess have zero or
// two managers outside the transaction.
func (s *SQLiteStore) TransferManager(ctx context.Context, messID, fromMemberID, toMemberID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().Unix()

		res, err := tx.ExecContext(ctx, `
			UPDATE mess_members SET role = 'member', updated_at = ?
			WHERE id = ? AND mess_id = ? AND role = 'manager' AND status = 'active'`,
			now, fromMemberID, messID,
		)
		if err != nil {
			return fmt.Errorf("failed to demote manager: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("member %s is not the active manager: %w", fromMemberID, storage.ErrNotFound)
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE mess_members SET role = 'manager', updated_at = ?
			WHERE id = ? AND mess_id = ? AND status = 'active'`,
			now, toMemberID, messID,
		)
		if err != nil {
			return fmt.Errorf("failed to promote manager: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("member %s not found or inactive: %w", toMemberID, storage.ErrNotFound)
		}
		return nil
	})
}
