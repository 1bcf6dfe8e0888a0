package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

// LedgerService handles the money side: bazaar expenses, deposits, fixed
// and individual costs, and the manager's approval decisions. Entries
// created by the manager are approved on the spot; a manager-created
// entry is never observable as pending.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// BazaarItemInput is one line item of a shopping trip.
type BazaarItemInput struct {
	Name      string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
}

// BazaarExpenseInput is a shopping trip submission. The header total is
// always derived from the items, never taken from the caller.
type BazaarExpenseInput struct {
	ExpenseDate string
	Notes       string
	Items       []BazaarItemInput
}

// approvalFor returns the initial approval state for an entry created by
// actor: managers self-approve, everyone else starts pending.
func approvalFor(actor Actor) (models.ApprovalStatus, string) {
	if actor.IsManager() {
		return models.ApprovalApproved, actor.MemberID
	}
	return models.ApprovalPending, ""
}

// AddBazaarExpense records a shopping trip by the actor. At least one
// item; quantities positive, prices non-negative.
func (s *LedgerService) AddBazaarExpense(ctx context.Context, actor Actor, input BazaarExpenseInput) (*models.BazaarExpense, error) {
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("a bazaar expense needs at least one item: %w", ErrInvalidInput)
	}
	if _, err := time.Parse(models.DateLayout, input.ExpenseDate); err != nil {
		return nil, fmt.Errorf("bad expense date %q: %w", input.ExpenseDate, ErrInvalidInput)
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	status, approvedBy := approvalFor(actor)
	expense := &models.BazaarExpense{
		ID:             uuid.New().String(),
		MessID:         actor.MessID,
		CycleID:        cycle.ID,
		ShopperID:      actor.MemberID,
		ExpenseDate:    input.ExpenseDate,
		Notes:          input.Notes,
		ApprovalStatus: status,
		ApprovedBy:     approvedBy,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	total := decimal.Zero
	for _, in := range input.Items {
		if in.Name == "" {
			return nil, fmt.Errorf("item name required: %w", ErrInvalidInput)
		}
		if !in.Quantity.IsPositive() {
			return nil, fmt.Errorf("item %q: quantity must be positive: %w", in.Name, ErrInvalidInput)
		}
		if in.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("item %q: unit price cannot be negative: %w", in.Name, ErrInvalidInput)
		}
		lineTotal := in.Quantity.Mul(in.UnitPrice)
		expense.Items = append(expense.Items, models.BazaarItem{
			ID:         uuid.New().String(),
			ExpenseID:  expense.ID,
			ItemName:   in.Name,
			Quantity:   in.Quantity,
			Unit:       in.Unit,
			UnitPrice:  in.UnitPrice,
			TotalPrice: lineTotal,
			CreatedAt:  now,
		})
		total = total.Add(lineTotal)
	}
	expense.TotalAmount = total

	if err := s.store.CreateBazaarExpense(ctx, expense); err != nil {
		return nil, err
	}

	slog.Info("bazaar expense recorded",
		"mess_id", actor.MessID, "expense_id", expense.ID,
		"total", total, "items", len(expense.Items), "status", status)
	logActivity(ctx, s.store, actor, "bazaar.add", fmt.Sprintf("%s %s", input.ExpenseDate, total))
	return expense, nil
}

// AddDeposit records a deposit. Members deposit for themselves; the
// manager may record a deposit for any member.
func (s *LedgerService) AddDeposit(ctx context.Context, actor Actor, memberID string, amount decimal.Decimal, method models.PaymentMethod, referenceNo, notes string) (*models.Deposit, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive: %w", ErrInvalidInput)
	}
	if !models.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, ErrInvalidInput)
	}
	if memberID == "" {
		memberID = actor.MemberID
	}
	if memberID != actor.MemberID && !actor.IsManager() {
		return nil, fmt.Errorf("only the manager records deposits for others: %w", ErrUnauthorized)
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}

	status, approvedBy := approvalFor(actor)
	dep := &models.Deposit{
		ID:             uuid.New().String(),
		MessID:         actor.MessID,
		CycleID:        cycle.ID,
		MemberID:       memberID,
		Amount:         amount,
		PaymentMethod:  method,
		ReferenceNo:    referenceNo,
		Notes:          notes,
		ApprovalStatus: status,
		ApprovedBy:     approvedBy,
		CreatedBy:      actor.UserID,
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.store.CreateDeposit(ctx, dep); err != nil {
		return nil, err
	}

	slog.Info("deposit recorded",
		"mess_id", actor.MessID, "member_id", memberID, "amount", amount, "status", status)
	logActivity(ctx, s.store, actor, "deposit.add", amount.String())
	return dep, nil
}

// AddFixedCost records a shared recurring cost. Manager-only; fixed costs
// have no approval gate and count immediately.
func (s *LedgerService) AddFixedCost(ctx context.Context, actor Actor, costType models.FixedCostType, description string, amount decimal.Decimal) (*models.FixedCost, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if !models.ValidFixedCostType(costType) {
		return nil, fmt.Errorf("unknown fixed cost type %q: %w", costType, ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("fixed cost amount must be positive: %w", ErrInvalidInput)
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	fc := &models.FixedCost{
		ID:          uuid.New().String(),
		MessID:      actor.MessID,
		CycleID:     cycle.ID,
		CostType:    costType,
		Description: description,
		Amount:      amount,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateFixedCost(ctx, fc); err != nil {
		return nil, err
	}

	logActivity(ctx, s.store, actor, "fixed_cost.add", fmt.Sprintf("%s %s", costType, amount))
	return fc, nil
}

// AddIndividualCost records a cost attributable to one member. Members
// submit for themselves (pending); the manager records for anyone
// (approved).
func (s *LedgerService) AddIndividualCost(ctx context.Context, actor Actor, memberID, description string, amount decimal.Decimal) (*models.IndividualCost, error) {
	if description == "" {
		return nil, fmt.Errorf("description required: %w", ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("individual cost amount must be positive: %w", ErrInvalidInput)
	}
	if memberID == "" {
		memberID = actor.MemberID
	}
	if memberID != actor.MemberID && !actor.IsManager() {
		return nil, fmt.Errorf("only the manager records costs for others: %w", ErrUnauthorized)
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	status, approvedBy := approvalFor(actor)
	ic := &models.IndividualCost{
		ID:             uuid.New().String(),
		MessID:         actor.MessID,
		CycleID:        cycle.ID,
		MemberID:       memberID,
		Description:    description,
		Amount:         amount,
		ApprovalStatus: status,
		ApprovedBy:     approvedBy,
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateIndividualCost(ctx, ic); err != nil {
		return nil, err
	}

	logActivity(ctx, s.store, actor, "individual_cost.add", fmt.Sprintf("%s %s", description, amount))
	return ic, nil
}

func terminalStatus(approve bool) models.ApprovalStatus {
	if approve {
		return models.ApprovalApproved
	}
	return models.ApprovalRejected
}

// SetBazaarApproval finalizes a pending bazaar expense. Manager-only;
// an already-finalized entry returns ErrAlreadyFinalized.
func (s *LedgerService) SetBazaarApproval(ctx context.Context, actor Actor, expenseID string, approve bool) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	status := terminalStatus(approve)
	if err := s.store.SetBazaarApproval(ctx, expenseID, status, actor.MemberID); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "bazaar."+string(status), expenseID)
	return nil
}

// SetDepositApproval finalizes a pending deposit. Manager-only.
func (s *LedgerService) SetDepositApproval(ctx context.Context, actor Actor, depositID string, approve bool) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	status := terminalStatus(approve)
	if err := s.store.SetDepositApproval(ctx, depositID, status, actor.MemberID); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "deposit."+string(status), depositID)
	return nil
}

// SetIndividualCostApproval finalizes a pending individual cost.
// Manager-only; a rejection may carry a reason.
func (s *LedgerService) SetIndividualCostApproval(ctx context.Context, actor Actor, costID string, approve bool, rejectionReason string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	status := terminalStatus(approve)
	if err := s.store.SetIndividualCostApproval(ctx, costID, status, actor.MemberID, rejectionReason); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "individual_cost."+string(status), costID)
	return nil
}

// BazaarExpenses lists a cycle's bazaar expenses with items.
func (s *LedgerService) BazaarExpenses(ctx context.Context, actor Actor, cycleID string) ([]models.BazaarExpense, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListBazaarExpenses(ctx, cycleID)
}

// Deposits lists a cycle's deposits.
func (s *LedgerService) Deposits(ctx context.Context, actor Actor, cycleID string) ([]models.Deposit, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListDeposits(ctx, cycleID)
}

// FixedCosts lists a cycle's fixed costs.
func (s *LedgerService) FixedCosts(ctx context.Context, actor Actor, cycleID string) ([]models.FixedCost, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListFixedCosts(ctx, cycleID)
}

// IndividualCosts lists a cycle's individual costs.
func (s *LedgerService) IndividualCosts(ctx context.Context, actor Actor, cycleID string) ([]models.IndividualCost, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	return s.store.ListIndividualCosts(ctx, cycleID)
}

// ConsumptionRate aggregates one item name across a cycle's approved
// shopping trips.
type ConsumptionRate struct {
	ItemName      string          `json:"item_name"`
	Unit          string          `json:"unit,omitempty"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalSpend    decimal.Decimal `json:"total_spend"`
	Purchases     int             `json:"purchases"`
}

// ConsumptionRates returns per-item purchase aggregates for a cycle,
// approved expenses only.
func (s *LedgerService) ConsumptionRates(ctx context.Context, actor Actor, cycleID string) ([]ConsumptionRate, error) {
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListBazaarExpenses(ctx, cycleID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*ConsumptionRate)
	var order []string
	for _, e := range expenses {
		if e.ApprovalStatus != models.ApprovalApproved {
			continue
		}
		for _, item := range e.Items {
			r, ok := byName[item.ItemName]
			if !ok {
				r = &ConsumptionRate{ItemName: item.ItemName, Unit: item.Unit}
				byName[item.ItemName] = r
				order = append(order, item.ItemName)
			}
			r.TotalQuantity = r.TotalQuantity.Add(item.Quantity)
			r.TotalSpend = r.TotalSpend.Add(item.TotalPrice)
			r.Purchases++
		}
	}

	rates := make([]ConsumptionRate, 0, len(order))
	for _, name := range order {
		rates = append(rates, *byName[name])
	}
	return rates, nil
}
