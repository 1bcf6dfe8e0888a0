// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
)

// Errors surfaced by Store implementations. Services translate these to
// their own taxonomy at the API boundary.
var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoOpenCycle means the mess has no cycle in the open state.
	ErrNoOpenCycle = errors.New("no open cycle")

	// ErrCycleClosed means the cycle is no longer open; its ledgers are
	// immutable and it cannot be closed again.
	ErrCycleClosed = errors.New("cycle already closed")

	// ErrAlreadyFinalized means an approval transition targeted an entry
	// that is no longer pending.
	ErrAlreadyFinalized = errors.New("entry already finalized")

	// ErrDuplicate means a uniqueness constraint was violated (e.g. a
	// second membership for the same user in the same mess).
	ErrDuplicate = errors.New("duplicate entry")
)

// MemberTotals is one member's ledger slice for a cycle, read in a single
// pass for the balance calculator. Deposit and individual-cost sums are
// filtered to approved entries.
type MemberTotals struct {
	OpeningBalance   decimal.Decimal
	ApprovedDeposits decimal.Decimal
	MealUnits        int
	IndividualCosts  decimal.Decimal
}

// CycleTotals is the cycle-wide ledger slice needed for the meal rate and
// fixed-cost share.
type CycleTotals struct {
	ApprovedBazaar decimal.Decimal
	FixedCosts     decimal.Decimal
	MealUnits      int
	ActiveMembers  int
}

// MealUpdate is one member's full-day meal state for a bulk manager edit.
// Counts are totals per slot: 0 means not eating, n>0 means eating with
// n-1 guests.
type MealUpdate struct {
	MemberID  string
	Breakfast int
	Lunch     int
	Dinner    int
}

// Store defines the interface for mess persistence. The sqlite
// implementation is the only one today; the abstraction keeps the service
// layer free of SQL and makes the atomic operations (bazaar insert, cycle
// close, manager transfer) explicit contract points.
type Store interface {
	// Users (auth collaborator).
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Mess bootstrap and configuration. CreateMess atomically writes the
	// mess, its founding manager membership, the first open cycle and the
	// default cutoff config.
	CreateMess(ctx context.Context, mess *models.Mess, manager *models.Member, firstCycle *models.Cycle) error
	GetMess(ctx context.Context, messID string) (*models.Mess, error)
	GetCutoffConfig(ctx context.Context, messID string) (*models.CutoffConfig, error)
	UpdateCutoffConfig(ctx context.Context, cfg *models.CutoffConfig) error

	// Members.
	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, memberID string) (*models.Member, error)
	GetMemberByUser(ctx context.Context, messID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, messID string, activeOnly bool) ([]models.Member, error)
	// TransferManager demotes from and promotes to in one transaction so
	// there is never a window with zero or two managers.
	TransferManager(ctx context.Context, messID, fromMemberID, toMemberID string) error

	// Cycles.
	GetCycle(ctx context.Context, cycleID string) (*models.Cycle, error)
	OpenCycle(ctx context.Context, messID string) (*models.Cycle, error)
	ListCycles(ctx context.Context, messID string) ([]models.Cycle, error)
	RenameCycle(ctx context.Context, cycleID, name string) error
	// CloseCycle atomically freezes the meal rate, snapshots every active
	// member, marks the cycle closed and opens the successor seeded with
	// the closing balances. All-or-nothing: any failure leaves no trace.
	CloseCycle(ctx context.Context, cycleID string, now time.Time, nextName, nextStart, nextEnd string) (*models.Cycle, []models.Snapshot, error)
	ListSnapshots(ctx context.Context, cycleID string) ([]models.Snapshot, error)

	// Meal ledger. Slot and guest upserts update exactly one column so
	// concurrent writes to different slots of the same row never clobber
	// each other.
	UpsertMealSlot(ctx context.Context, messID, cycleID, memberID, mealDate string, slot models.Slot, present bool) error
	UpsertGuestCount(ctx context.Context, messID, cycleID, memberID, mealDate string, slot models.Slot, count int) error
	GetMeal(ctx context.Context, cycleID, memberID, mealDate string) (*models.DailyMeal, error)
	ListMealsForDate(ctx context.Context, cycleID, mealDate string) ([]models.DailyMeal, error)
	ListMealsForCycle(ctx context.Context, cycleID string) ([]models.DailyMeal, error)
	ListMealsForMember(ctx context.Context, cycleID, memberID string) ([]models.DailyMeal, error)
	BulkSetMeals(ctx context.Context, messID, cycleID, mealDate string, updates []MealUpdate) error

	// Expense & deposit ledger. CreateBazaarExpense writes the header and
	// all items in one transaction; a failed item insert rolls the header
	// back.
	CreateBazaarExpense(ctx context.Context, expense *models.BazaarExpense) error
	ListBazaarExpenses(ctx context.Context, cycleID string) ([]models.BazaarExpense, error)
	CreateDeposit(ctx context.Context, dep *models.Deposit) error
	ListDeposits(ctx context.Context, cycleID string) ([]models.Deposit, error)
	CreateFixedCost(ctx context.Context, fc *models.FixedCost) error
	ListFixedCosts(ctx context.Context, cycleID string) ([]models.FixedCost, error)
	CreateIndividualCost(ctx context.Context, ic *models.IndividualCost) error
	ListIndividualCosts(ctx context.Context, cycleID string) ([]models.IndividualCost, error)

	// Approval transitions: pending -> approved|rejected, pending-only.
	SetBazaarApproval(ctx context.Context, expenseID string, status models.ApprovalStatus, approvedBy string) error
	SetDepositApproval(ctx context.Context, depositID string, status models.ApprovalStatus, approvedBy string) error
	SetIndividualCostApproval(ctx context.Context, costID string, status models.ApprovalStatus, approvedBy, rejectionReason string) error

	// Derivation reads.
	CycleTotals(ctx context.Context, cycleID string) (*CycleTotals, error)
	MemberTotals(ctx context.Context, cycleID, memberID string) (*MemberTotals, error)

	// Audit trail.
	AppendActivity(ctx context.Context, entry *models.ActivityEntry) error
	ListActivity(ctx context.Context, messID string, limit int) ([]models.ActivityEntry, error)

	// Close releases any resources held by the store.
	Close() error
}
