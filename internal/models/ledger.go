package models

import "github.com/shopspring/decimal"

// ApprovalStatus gates member-submitted financial entries. Entries made by
// the manager are created directly in approved state; everyone else starts
// pending and only a manager may finalize. Rejected entries are kept for
// audit but excluded from every balance sum.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// PaymentMethod for deposits.
type PaymentMethod string

const (
	PayCash         PaymentMethod = "cash"
	PayBkash        PaymentMethod = "bkash"
	PayNagad        PaymentMethod = "nagad"
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayOther        PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayBkash, PayNagad, PayBankTransfer, PayOther:
		return true
	}
	return false
}

// FixedCostType categorizes a shared recurring cost.
type FixedCostType string

const (
	FixedCookSalary  FixedCostType = "cook_salary"
	FixedWifi        FixedCostType = "wifi"
	FixedGas         FixedCostType = "gas"
	FixedElectricity FixedCostType = "electricity"
	FixedWater       FixedCostType = "water"
	FixedRent        FixedCostType = "rent"
	FixedCleaning    FixedCostType = "cleaning"
	FixedMaintenance FixedCostType = "maintenance"
	FixedOther       FixedCostType = "other"
)

// ValidFixedCostType reports whether t is a known fixed-cost category.
func ValidFixedCostType(t FixedCostType) bool {
	switch t {
	case FixedCookSalary, FixedWifi, FixedGas, FixedElectricity, FixedWater,
		FixedRent, FixedCleaning, FixedMaintenance, FixedOther:
		return true
	}
	return false
}

// BazaarExpense is a shopping trip: a header whose total is derived from
// its line items. A header never exists without at least one item; the two
// are written in one transaction.
type BazaarExpense struct {
	ID             string          `json:"id"`
	MessID         string          `json:"mess_id"`
	CycleID        string          `json:"cycle_id"`
	ShopperID      string          `json:"shopper_id"`
	ExpenseDate    string          `json:"expense_date"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Notes          string          `json:"notes,omitempty"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	ApprovedBy     string          `json:"approved_by,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      int64           `json:"created_at"`
	UpdatedAt      int64           `json:"updated_at"`

	// Items are the line items; populated on reads that ask for them.
	Items []BazaarItem `json:"items,omitempty"`
}

// BazaarItem is one purchased line item.
type BazaarItem struct {
	ID        string          `json:"id"`
	ExpenseID string          `json:"expense_id"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	// TotalPrice is Quantity x UnitPrice, computed at insert.
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  int64           `json:"created_at"`
}

// FixedCost is a shared recurring cost for a cycle, split equally across
// the mess's active members. There is no approval gate: it counts the
// moment it is inserted.
type FixedCost struct {
	ID          string          `json:"id"`
	MessID      string          `json:"mess_id"`
	CycleID     string          `json:"cycle_id"`
	CostType    FixedCostType   `json:"cost_type"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// IndividualCost is a cost attributable to exactly one member. Counts
// toward that member's balance only once approved.
type IndividualCost struct {
	ID              string          `json:"id"`
	MessID          string          `json:"mess_id"`
	CycleID         string          `json:"cycle_id"`
	MemberID        string          `json:"member_id"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
}

// Deposit is a cash contribution by one member. Counts toward the
// member's balance only once approved.
type Deposit struct {
	ID             string          `json:"id"`
	MessID         string          `json:"mess_id"`
	CycleID        string          `json:"cycle_id"`
	MemberID       string          `json:"member_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	ReferenceNo    string          `json:"reference_no,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	ApprovedBy     string          `json:"approved_by,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      int64           `json:"created_at"`
}

// ActivityEntry is one audit-trail row. Mutating operations append these;
// nothing in the balance math reads them.
type ActivityEntry struct {
	ID        string `json:"id"`
	MessID    string `json:"mess_id"`
	ActorID   string `json:"actor_id,omitempty"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	CreatedAt int64  `json:"created_at"`
}
