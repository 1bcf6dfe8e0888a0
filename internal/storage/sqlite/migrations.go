package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Money columns are TEXT: amounts are shopspring decimals serialized with
// String(), never floats. Summation happens in Go.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL,
    phone TEXT,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messes (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    address TEXT,
    created_by TEXT NOT NULL,
    timezone TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mess_members (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL,
    status TEXT NOT NULL,
    join_date TEXT NOT NULL,
    leave_date TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (mess_id, user_id),
    FOREIGN KEY (mess_id) REFERENCES messes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS meal_cutoff_config (
    mess_id TEXT PRIMARY KEY,
    breakfast_cutoff TEXT NOT NULL,
    lunch_cutoff TEXT NOT NULL,
    dinner_cutoff TEXT NOT NULL,
    FOREIGN KEY (mess_id) REFERENCES messes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS mess_cycles (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    name TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    status TEXT NOT NULL,
    final_meal_rate TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (mess_id) REFERENCES messes(id) ON DELETE CASCADE
);

-- The core lifecycle invariant: at most one open cycle per mess.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_cycle_per_mess
    ON mess_cycles(mess_id) WHERE status = 'open';

CREATE TABLE IF NOT EXISTS cycle_openings (
    cycle_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    opening_balance TEXT NOT NULL,
    PRIMARY KEY (cycle_id, member_id),
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS daily_meals (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    meal_date TEXT NOT NULL,
    breakfast INTEGER NOT NULL DEFAULT 0,
    lunch INTEGER NOT NULL DEFAULT 0,
    dinner INTEGER NOT NULL DEFAULT 0,
    guest_breakfast INTEGER NOT NULL DEFAULT 0,
    guest_lunch INTEGER NOT NULL DEFAULT 0,
    guest_dinner INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (cycle_id, member_id, meal_date),
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bazaar_expenses (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    shopper_id TEXT NOT NULL,
    expense_date TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    notes TEXT,
    approval_status TEXT NOT NULL,
    approved_by TEXT,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bazaar_items (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL,
    item_name TEXT NOT NULL,
    quantity TEXT NOT NULL,
    unit TEXT NOT NULL,
    unit_price TEXT NOT NULL,
    total_price TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (expense_id) REFERENCES bazaar_expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS fixed_costs (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    cost_type TEXT NOT NULL,
    description TEXT,
    amount TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS individual_costs (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    approval_status TEXT NOT NULL,
    approved_by TEXT,
    rejection_reason TEXT,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS deposits (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    payment_method TEXT NOT NULL,
    reference_no TEXT,
    notes TEXT,
    approval_status TEXT NOT NULL,
    approved_by TEXT,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS month_snapshots (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    total_meals INTEGER NOT NULL,
    meal_rate TEXT NOT NULL,
    total_meal_cost TEXT NOT NULL,
    total_fixed_cost TEXT NOT NULL,
    total_individual_cost TEXT NOT NULL,
    total_deposits TEXT NOT NULL,
    opening_balance TEXT NOT NULL,
    closing_balance TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (cycle_id, member_id),
    FOREIGN KEY (cycle_id) REFERENCES mess_cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    mess_id TEXT NOT NULL,
    actor_id TEXT,
    action TEXT NOT NULL,
    details TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (mess_id) REFERENCES messes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_members_mess_id ON mess_members(mess_id);
CREATE INDEX IF NOT EXISTS idx_cycles_mess_id ON mess_cycles(mess_id);
CREATE INDEX IF NOT EXISTS idx_meals_cycle_id ON daily_meals(cycle_id);
CREATE INDEX IF NOT EXISTS idx_meals_mess_date ON daily_meals(mess_id, meal_date);
CREATE INDEX IF NOT EXISTS idx_bazaar_cycle_id ON bazaar_expenses(cycle_id);
CREATE INDEX IF NOT EXISTS idx_bazaar_items_expense_id ON bazaar_items(expense_id);
CREATE INDEX IF NOT EXISTS idx_fixed_cycle_id ON fixed_costs(cycle_id);
CREATE INDEX IF NOT EXISTS idx_individual_cycle_id ON individual_costs(cycle_id);
CREATE INDEX IF NOT EXISTS idx_deposits_cycle_id ON deposits(cycle_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_cycle_id ON month_snapshots(cycle_id);
CREATE INDEX IF NOT EXISTS idx_activity_mess_id ON activity_log(mess_id, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
