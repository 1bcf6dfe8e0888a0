package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "messbook-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	mess    *models.Mess
	manager *models.Member
	member  *models.Member
	cycle   *models.Cycle
}

// seedMess bootstraps a mess with a manager, one regular member and an
// open cycle.
func seedMess(t *testing.T, store *SQLiteStore) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().Unix()

	// Unique emails: multiple fixtures share one store.
	suffix := uuid.New().String()[:8]
	managerUser := models.NewUser("manager-"+suffix+"@example.com", "Rafiq Manager", "hash")
	memberUser := models.NewUser("member-"+suffix+"@example.com", "Karim Member", "hash")
	for _, u := range []*models.User{managerUser, memberUser} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	mess := &models.Mess{
		ID:        uuid.New().String(),
		Name:      "Green Valley Mess",
		CreatedBy: managerUser.ID,
		Timezone:  "Asia/Dhaka",
		CreatedAt: now,
		UpdatedAt: now,
	}
	manager := &models.Member{
		ID:        uuid.New().String(),
		MessID:    mess.ID,
		UserID:    managerUser.ID,
		Role:      models.RoleManager,
		Status:    models.StatusActive,
		JoinDate:  "2026-01-01",
		CreatedAt: now,
		UpdatedAt: now,
	}
	cycle := &models.Cycle{
		ID:        uuid.New().String(),
		MessID:    mess.ID,
		Name:      "January 2026",
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
		Status:    models.CycleOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateMess(ctx, mess, manager, cycle); err != nil {
		t.Fatalf("CreateMess failed: %v", err)
	}

	member := &models.Member{
		ID:        uuid.New().String(),
		MessID:    mess.ID,
		UserID:    memberUser.ID,
		Role:      models.RoleMember,
		Status:    models.StatusActive,
		JoinDate:  "2026-01-02",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.AddMember(ctx, member); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	return &fixture{mess: mess, manager: manager, member: member, cycle: cycle}
}

func newBazaarExpense(f *fixture, amount string) *models.BazaarExpense {
	now := time.Now().Unix()
	total := decimal.RequireFromString(amount)
	return &models.BazaarExpense{
		ID:             uuid.New().String(),
		MessID:         f.mess.ID,
		CycleID:        f.cycle.ID,
		ShopperID:      f.member.ID,
		ExpenseDate:    "2026-01-10",
		TotalAmount:    total,
		ApprovalStatus: models.ApprovalPending,
		CreatedBy:      f.member.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Items: []models.BazaarItem{
			{
				ID:         uuid.New().String(),
				ItemName:   "Rice",
				Quantity:   decimal.NewFromInt(5),
				Unit:       "kg",
				UnitPrice:  total.Div(decimal.NewFromInt(5)),
				TotalPrice: total,
				CreatedAt:  now,
			},
		},
	}
}

func newDeposit(f *fixture, memberID, amount string, status models.ApprovalStatus) *models.Deposit {
	return &models.Deposit{
		ID:             uuid.New().String(),
		MessID:         f.mess.ID,
		CycleID:        f.cycle.ID,
		MemberID:       memberID,
		Amount:         decimal.RequireFromString(amount),
		PaymentMethod:  models.PayCash,
		ApprovalStatus: status,
		CreatedBy:      f.member.UserID,
		CreatedAt:      time.Now().Unix(),
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateMess bootstraps manager and open cycle", func(t *testing.T) {
		f := seedMess(t, store)

		cycle, err := store.OpenCycle(ctx, f.mess.ID)
		if err != nil {
			t.Fatalf("OpenCycle failed: %v", err)
		}
		if cycle.ID != f.cycle.ID {
			t.Errorf("Open cycle mismatch: got %s, want %s", cycle.ID, f.cycle.ID)
		}
		if cycle.FinalMealRate != nil {
			t.Error("Expected nil FinalMealRate for open cycle")
		}

		cfg, err := store.GetCutoffConfig(ctx, f.mess.ID)
		if err != nil {
			t.Fatalf("GetCutoffConfig failed: %v", err)
		}
		if cfg.BreakfastCutoff != models.DefaultBreakfastCutoff {
			t.Errorf("Breakfast cutoff: got %s, want %s", cfg.BreakfastCutoff, models.DefaultBreakfastCutoff)
		}

		members, err := store.ListMembers(ctx, f.mess.ID, true)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(members))
		}
		if members[0].Role != models.RoleManager {
			t.Errorf("Expected manager listed first, got role %s", members[0].Role)
		}
	})

	t.Run("AddMember rejects duplicate membership", func(t *testing.T) {
		f := seedMess(t, store)

		dup := *f.member
		dup.ID = uuid.New().String()
		err := store.AddMember(ctx, &dup)
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Errorf("Expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("Meal slot upserts touch one column each", func(t *testing.T) {
		f := seedMess(t, store)
		date := "2026-01-05"

		err := store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, date, models.SlotLunch, true)
		if err != nil {
			t.Fatalf("UpsertMealSlot failed: %v", err)
		}
		err = store.UpsertGuestCount(ctx, f.mess.ID, f.cycle.ID, f.member.ID, date, models.SlotDinner, 2)
		if err != nil {
			t.Fatalf("UpsertGuestCount failed: %v", err)
		}

		meal, err := store.GetMeal(ctx, f.cycle.ID, f.member.ID, date)
		if err != nil {
			t.Fatalf("GetMeal failed: %v", err)
		}
		if !meal.Lunch {
			t.Error("Expected lunch on")
		}
		if meal.Breakfast || meal.Dinner {
			t.Error("Expected other slots untouched")
		}
		if meal.GuestDinner != 2 {
			t.Errorf("GuestDinner: got %d, want 2", meal.GuestDinner)
		}
		if meal.Units() != 3 {
			t.Errorf("Units: got %d, want 3", meal.Units())
		}

		// Toggling off leaves the guest count alone.
		err = store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, date, models.SlotLunch, false)
		if err != nil {
			t.Fatalf("UpsertMealSlot failed: %v", err)
		}
		meal, err = store.GetMeal(ctx, f.cycle.ID, f.member.ID, date)
		if err != nil {
			t.Fatalf("GetMeal failed: %v", err)
		}
		if meal.Lunch {
			t.Error("Expected lunch off after toggle")
		}
		if meal.GuestDinner != 2 {
			t.Errorf("GuestDinner clobbered: got %d, want 2", meal.GuestDinner)
		}
	})

	t.Run("GetMeal returns ErrNotFound without a row", func(t *testing.T) {
		f := seedMess(t, store)
		_, err := store.GetMeal(ctx, f.cycle.ID, f.member.ID, "2026-01-20")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("BulkSetMeals encodes counts as flag plus guests", func(t *testing.T) {
		f := seedMess(t, store)
		date := "2026-01-06"

		err := store.BulkSetMeals(ctx, f.mess.ID, f.cycle.ID, date, []storage.MealUpdate{
			{MemberID: f.manager.ID, Breakfast: 1, Lunch: 3, Dinner: 0},
			{MemberID: f.member.ID, Breakfast: 0, Lunch: 0, Dinner: 1},
		})
		if err != nil {
			t.Fatalf("BulkSetMeals failed: %v", err)
		}

		meal, err := store.GetMeal(ctx, f.cycle.ID, f.manager.ID, date)
		if err != nil {
			t.Fatalf("GetMeal failed: %v", err)
		}
		if !meal.Breakfast || meal.GuestBreakfast != 0 {
			t.Errorf("Breakfast count 1: got flag=%v guests=%d", meal.Breakfast, meal.GuestBreakfast)
		}
		if !meal.Lunch || meal.GuestLunch != 2 {
			t.Errorf("Lunch count 3: got flag=%v guests=%d", meal.Lunch, meal.GuestLunch)
		}
		if meal.Dinner || meal.GuestDinner != 0 {
			t.Errorf("Dinner count 0: got flag=%v guests=%d", meal.Dinner, meal.GuestDinner)
		}
	})

	t.Run("CreateBazaarExpense writes header and items atomically", func(t *testing.T) {
		f := seedMess(t, store)

		expense := newBazaarExpense(f, "1500.50")
		if err := store.CreateBazaarExpense(ctx, expense); err != nil {
			t.Fatalf("CreateBazaarExpense failed: %v", err)
		}

		expenses, err := store.ListBazaarExpenses(ctx, f.cycle.ID)
		if err != nil {
			t.Fatalf("ListBazaarExpenses failed: %v", err)
		}
		if len(expenses) != 1 {
			t.Fatalf("Expected 1 expense, got %d", len(expenses))
		}
		got := expenses[0]
		if !got.TotalAmount.Equal(decimal.RequireFromString("1500.50")) {
			t.Errorf("TotalAmount: got %s, want 1500.50", got.TotalAmount)
		}
		if len(got.Items) != 1 {
			t.Fatalf("Expected 1 item, got %d", len(got.Items))
		}
		if got.Items[0].ItemName != "Rice" {
			t.Errorf("ItemName: got %s, want Rice", got.Items[0].ItemName)
		}
	})

	t.Run("Failed item insert rolls back the header", func(t *testing.T) {
		f := seedMess(t, store)

		// Second item reuses the first item's id, which violates the
		// primary key mid-transaction.
		expense := newBazaarExpense(f, "200")
		dup := expense.Items[0]
		dup.ItemName = "Oil"
		expense.Items = append(expense.Items, dup)

		if err := store.CreateBazaarExpense(ctx, expense); err == nil {
			t.Fatal("Expected duplicate item id to fail the insert")
		}

		expenses, err := store.ListBazaarExpenses(ctx, f.cycle.ID)
		if err != nil {
			t.Fatalf("ListBazaarExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected no header after rollback, got %d", len(expenses))
		}
	})

	t.Run("Approval transitions are pending-only", func(t *testing.T) {
		f := seedMess(t, store)

		dep := newDeposit(f, f.member.ID, "500", models.ApprovalPending)
		if err := store.CreateDeposit(ctx, dep); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}

		err := store.SetDepositApproval(ctx, dep.ID, models.ApprovalApproved, f.manager.ID)
		if err != nil {
			t.Fatalf("SetDepositApproval failed: %v", err)
		}

		// Second transition must fail; the first decision stands.
		err = store.SetDepositApproval(ctx, dep.ID, models.ApprovalRejected, f.manager.ID)
		if !errors.Is(err, storage.ErrAlreadyFinalized) {
			t.Errorf("Expected ErrAlreadyFinalized, got %v", err)
		}

		err = store.SetDepositApproval(ctx, "nonexistent-id", models.ApprovalApproved, f.manager.ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Rejection reason is recorded for individual costs", func(t *testing.T) {
		f := seedMess(t, store)
		now := time.Now().Unix()

		ic := &models.IndividualCost{
			ID:             uuid.New().String(),
			MessID:         f.mess.ID,
			CycleID:        f.cycle.ID,
			MemberID:       f.member.ID,
			Description:    "Guest dinner plates",
			Amount:         decimal.RequireFromString("120"),
			ApprovalStatus: models.ApprovalPending,
			CreatedBy:      f.member.UserID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := store.CreateIndividualCost(ctx, ic); err != nil {
			t.Fatalf("CreateIndividualCost failed: %v", err)
		}
		err := store.SetIndividualCostApproval(ctx, ic.ID, models.ApprovalRejected, f.manager.ID, "no receipt")
		if err != nil {
			t.Fatalf("SetIndividualCostApproval failed: %v", err)
		}

		costs, err := store.ListIndividualCosts(ctx, f.cycle.ID)
		if err != nil {
			t.Fatalf("ListIndividualCosts failed: %v", err)
		}
		if len(costs) != 1 {
			t.Fatalf("Expected 1 cost, got %d", len(costs))
		}
		if costs[0].ApprovalStatus != models.ApprovalRejected {
			t.Errorf("Status: got %s, want rejected", costs[0].ApprovalStatus)
		}
		if costs[0].RejectionReason != "no receipt" {
			t.Errorf("RejectionReason: got %q, want %q", costs[0].RejectionReason, "no receipt")
		}
	})

	t.Run("Totals count only approved entries", func(t *testing.T) {
		f := seedMess(t, store)

		approved := newBazaarExpense(f, "900")
		approved.ApprovalStatus = models.ApprovalApproved
		pending := newBazaarExpense(f, "333.33")
		for _, e := range []*models.BazaarExpense{approved, pending} {
			if err := store.CreateBazaarExpense(ctx, e); err != nil {
				t.Fatalf("CreateBazaarExpense failed: %v", err)
			}
		}

		depApproved := newDeposit(f, f.member.ID, "1000", models.ApprovalApproved)
		depPending := newDeposit(f, f.member.ID, "9999", models.ApprovalPending)
		for _, d := range []*models.Deposit{depApproved, depPending} {
			if err := store.CreateDeposit(ctx, d); err != nil {
				t.Fatalf("CreateDeposit failed: %v", err)
			}
		}

		if err := store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, "2026-01-07", models.SlotLunch, true); err != nil {
			t.Fatalf("UpsertMealSlot failed: %v", err)
		}
		if err := store.UpsertGuestCount(ctx, f.mess.ID, f.cycle.ID, f.member.ID, "2026-01-07", models.SlotLunch, 1); err != nil {
			t.Fatalf("UpsertGuestCount failed: %v", err)
		}

		totals, err := store.CycleTotals(ctx, f.cycle.ID)
		if err != nil {
			t.Fatalf("CycleTotals failed: %v", err)
		}
		if !totals.ApprovedBazaar.Equal(decimal.RequireFromString("900")) {
			t.Errorf("ApprovedBazaar: got %s, want 900", totals.ApprovedBazaar)
		}
		if totals.MealUnits != 2 {
			t.Errorf("MealUnits: got %d, want 2", totals.MealUnits)
		}
		if totals.ActiveMembers != 2 {
			t.Errorf("ActiveMembers: got %d, want 2", totals.ActiveMembers)
		}

		mt, err := store.MemberTotals(ctx, f.cycle.ID, f.member.ID)
		if err != nil {
			t.Fatalf("MemberTotals failed: %v", err)
		}
		if !mt.ApprovedDeposits.Equal(decimal.RequireFromString("1000")) {
			t.Errorf("ApprovedDeposits: got %s, want 1000", mt.ApprovedDeposits)
		}
		if !mt.OpeningBalance.IsZero() {
			t.Errorf("OpeningBalance: got %s, want 0 for first cycle", mt.OpeningBalance)
		}
		if mt.MealUnits != 2 {
			t.Errorf("Member MealUnits: got %d, want 2", mt.MealUnits)
		}
	})

	t.Run("Writes to a closed cycle are rejected", func(t *testing.T) {
		f := seedMess(t, store)

		_, _, err := store.CloseCycle(ctx, f.cycle.ID, time.Now(), "February 2026", "2026-02-01", "2026-02-28")
		if err != nil {
			t.Fatalf("CloseCycle failed: %v", err)
		}

		err = store.CreateBazaarExpense(ctx, newBazaarExpense(f, "100"))
		if !errors.Is(err, storage.ErrCycleClosed) {
			t.Errorf("Expected ErrCycleClosed for bazaar insert, got %v", err)
		}
		err = store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, "2026-01-08", models.SlotDinner, true)
		if !errors.Is(err, storage.ErrCycleClosed) {
			t.Errorf("Expected ErrCycleClosed for meal upsert, got %v", err)
		}
	})

	t.Run("TransferManager swaps roles atomically", func(t *testing.T) {
		f := seedMess(t, store)

		err := store.TransferManager(ctx, f.mess.ID, f.manager.ID, f.member.ID)
		if err != nil {
			t.Fatalf("TransferManager failed: %v", err)
		}

		promoted, err := store.GetMember(ctx, f.member.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if promoted.Role != models.RoleManager {
			t.Errorf("Promoted role: got %s, want manager", promoted.Role)
		}
		demoted, err := store.GetMember(ctx, f.manager.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if demoted.Role != models.RoleMember {
			t.Errorf("Demoted role: got %s, want member", demoted.Role)
		}
	})

	t.Run("Activity log round trip", func(t *testing.T) {
		f := seedMess(t, store)

		entry := &models.ActivityEntry{
			ID:        uuid.New().String(),
			MessID:    f.mess.ID,
			ActorID:   f.manager.ID,
			Action:    "cycle.close",
			Details:   "January 2026",
			CreatedAt: time.Now().Unix(),
		}
		if err := store.AppendActivity(ctx, entry); err != nil {
			t.Fatalf("AppendActivity failed: %v", err)
		}
		entries, err := store.ListActivity(ctx, f.mess.ID, 10)
		if err != nil {
			t.Fatalf("ListActivity failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if entries[0].Action != "cycle.close" {
			t.Errorf("Action: got %s, want cycle.close", entries[0].Action)
		}
	})
}

func TestCloseCycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedMess(t, store)

	// Ledger: 500 approved bazaar, 2 meal units (both the member's),
	// 1000 approved deposit, 200 fixed cost split across 2 actives.
	bazaar := newBazaarExpense(f, "500")
	bazaar.ApprovalStatus = models.ApprovalApproved
	if err := store.CreateBazaarExpense(ctx, bazaar); err != nil {
		t.Fatalf("CreateBazaarExpense failed: %v", err)
	}
	if err := store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, "2026-01-10", models.SlotLunch, true); err != nil {
		t.Fatalf("UpsertMealSlot failed: %v", err)
	}
	if err := store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, "2026-01-10", models.SlotDinner, true); err != nil {
		t.Fatalf("UpsertMealSlot failed: %v", err)
	}
	if err := store.CreateDeposit(ctx, newDeposit(f, f.member.ID, "1000", models.ApprovalApproved)); err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}
	now := time.Now().Unix()
	fc := &models.FixedCost{
		ID:        uuid.New().String(),
		MessID:    f.mess.ID,
		CycleID:   f.cycle.ID,
		CostType:  models.FixedWifi,
		Amount:    decimal.RequireFromString("200"),
		CreatedBy: f.manager.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateFixedCost(ctx, fc); err != nil {
		t.Fatalf("CreateFixedCost failed: %v", err)
	}

	successor, snapshots, err := store.CloseCycle(ctx, f.cycle.ID, time.Now(), "February 2026", "2026-02-01", "2026-02-28")
	if err != nil {
		t.Fatalf("CloseCycle failed: %v", err)
	}

	// Rate = 500 / 2 units = 250.
	closed, err := store.GetCycle(ctx, f.cycle.ID)
	if err != nil {
		t.Fatalf("GetCycle failed: %v", err)
	}
	if closed.Status != models.CycleClosed {
		t.Errorf("Status: got %s, want closed", closed.Status)
	}
	if closed.FinalMealRate == nil {
		t.Fatal("Expected frozen FinalMealRate")
	}
	if !closed.FinalMealRate.Equal(decimal.RequireFromString("250")) {
		t.Errorf("FinalMealRate: got %s, want 250", closed.FinalMealRate)
	}

	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snapshots))
	}
	byMember := make(map[string]models.Snapshot, len(snapshots))
	for _, s := range snapshots {
		byMember[s.MemberID] = s
	}

	// Member: 0 opening + 1000 deposits - 2*250 meals - 100 fixed share = 400.
	ms := byMember[f.member.ID]
	if ms.TotalMeals != 2 {
		t.Errorf("Member TotalMeals: got %d, want 2", ms.TotalMeals)
	}
	if !ms.ClosingBalance.Equal(decimal.RequireFromString("400")) {
		t.Errorf("Member ClosingBalance: got %s, want 400", ms.ClosingBalance)
	}
	// Manager: no meals, no deposits, just the fixed share: -100.
	mgr := byMember[f.manager.ID]
	if !mgr.ClosingBalance.Equal(decimal.RequireFromString("-100")) {
		t.Errorf("Manager ClosingBalance: got %s, want -100", mgr.ClosingBalance)
	}

	// Successor is open and seeded with the closing balances.
	open, err := store.OpenCycle(ctx, f.mess.ID)
	if err != nil {
		t.Fatalf("OpenCycle failed: %v", err)
	}
	if open.ID != successor.ID {
		t.Errorf("Open cycle: got %s, want successor %s", open.ID, successor.ID)
	}
	mt, err := store.MemberTotals(ctx, successor.ID, f.member.ID)
	if err != nil {
		t.Fatalf("MemberTotals failed: %v", err)
	}
	if !mt.OpeningBalance.Equal(decimal.RequireFromString("400")) {
		t.Errorf("Successor opening: got %s, want 400", mt.OpeningBalance)
	}

	// Snapshots persist and can be re-read.
	persisted, err := store.ListSnapshots(ctx, f.cycle.ID)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("Expected 2 persisted snapshots, got %d", len(persisted))
	}

	// A second close must fail without touching anything.
	_, _, err = store.CloseCycle(ctx, f.cycle.ID, time.Now(), "March 2026", "2026-03-01", "2026-03-31")
	if !errors.Is(err, storage.ErrCycleClosed) {
		t.Errorf("Expected ErrCycleClosed on second close, got %v", err)
	}
	again, err := store.ListSnapshots(ctx, f.cycle.ID)
	if err != nil {
		t.Fatalf("ListSnapshots failed: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("Second close left %d snapshots, want 2", len(again))
	}
}

// A successor cycle whose date range overlaps the closed one must get its
// own meal rows: an upsert for an already-recorded date may not land on
// the frozen cycle's row.
func TestOverlappingSuccessorMealsStayScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := seedMess(t, store)

	const date = "2026-01-20"
	if err := store.UpsertMealSlot(ctx, f.mess.ID, f.cycle.ID, f.member.ID, date, models.SlotDinner, true); err != nil {
		t.Fatalf("UpsertMealSlot failed: %v", err)
	}

	// Close mid-month: the successor starts before the recorded date.
	successor, _, err := store.CloseCycle(ctx, f.cycle.ID, time.Now(), "Mid January 2026", "2026-01-15", "2026-02-14")
	if err != nil {
		t.Fatalf("CloseCycle failed: %v", err)
	}

	if err := store.UpsertMealSlot(ctx, f.mess.ID, successor.ID, f.member.ID, date, models.SlotDinner, true); err != nil {
		t.Fatalf("UpsertMealSlot in successor failed: %v", err)
	}
	if err := store.UpsertMealSlot(ctx, f.mess.ID, successor.ID, f.member.ID, date, models.SlotLunch, true); err != nil {
		t.Fatalf("UpsertMealSlot in successor failed: %v", err)
	}

	closedTotals, err := store.MemberTotals(ctx, f.cycle.ID, f.member.ID)
	if err != nil {
		t.Fatalf("MemberTotals failed: %v", err)
	}
	if closedTotals.MealUnits != 1 {
		t.Errorf("Closed cycle units: got %d, want 1 (frozen)", closedTotals.MealUnits)
	}

	openTotals, err := store.MemberTotals(ctx, successor.ID, f.member.ID)
	if err != nil {
		t.Fatalf("MemberTotals failed: %v", err)
	}
	if openTotals.MealUnits != 2 {
		t.Errorf("Successor units: got %d, want 2", openTotals.MealUnits)
	}

	// Both rows exist independently, one per cycle.
	frozen, err := store.GetMeal(ctx, f.cycle.ID, f.member.ID, date)
	if err != nil {
		t.Fatalf("GetMeal on closed cycle failed: %v", err)
	}
	if frozen.CycleID != f.cycle.ID || frozen.Lunch {
		t.Errorf("Closed cycle row changed: cycle=%s lunch=%t", frozen.CycleID, frozen.Lunch)
	}
	fresh, err := store.GetMeal(ctx, successor.ID, f.member.ID, date)
	if err != nil {
		t.Fatalf("GetMeal on successor failed: %v", err)
	}
	if fresh.CycleID != successor.ID || !fresh.Dinner || !fresh.Lunch {
		t.Errorf("Successor row: cycle=%s dinner=%t lunch=%t, want own row with both slots",
			fresh.CycleID, fresh.Dinner, fresh.Lunch)
	}
}
