package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/service"
)

type bazaarItemRequest struct {
	Name      string          `json:"name" validate:"required,min=1,max=120"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	Unit      string          `json:"unit" validate:"max=20"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type addBazaarRequest struct {
	Date  string              `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string              `json:"notes" validate:"max=500"`
	Items []bazaarItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (s *Server) handleAddBazaar(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addBazaarRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input := service.BazaarExpenseInput{
		ExpenseDate: req.Date,
		Notes:       req.Notes,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.BazaarItemInput{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
		})
	}

	expense, err := s.ledger.AddBazaarExpense(r.Context(), actor, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

type addDepositRequest struct {
	MemberID    string          `json:"member_id" validate:"omitempty,uuid4"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Method      string          `json:"payment_method" validate:"required,oneof=cash bkash nagad bank_transfer other"`
	ReferenceNo string          `json:"reference_no" validate:"max=100"`
	Notes       string          `json:"notes" validate:"max=500"`
}

func (s *Server) handleAddDeposit(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addDepositRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	dep, err := s.ledger.AddDeposit(r.Context(), actor, req.MemberID, req.Amount,
		models.PaymentMethod(req.Method), req.ReferenceNo, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

type addFixedCostRequest struct {
	CostType    string          `json:"cost_type" validate:"required"`
	Description string          `json:"description" validate:"max=300"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

func (s *Server) handleAddFixedCost(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addFixedCostRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	fc, err := s.ledger.AddFixedCost(r.Context(), actor,
		models.FixedCostType(req.CostType), req.Description, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fc)
}

type addIndividualCostRequest struct {
	MemberID    string          `json:"member_id" validate:"omitempty,uuid4"`
	Description string          `json:"description" validate:"required,min=1,max=300"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

func (s *Server) handleAddIndividualCost(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addIndividualCostRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ic, err := s.ledger.AddIndividualCost(r.Context(), actor, req.MemberID, req.Description, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ic)
}

type approvalRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason" validate:"max=300"`
}

func (s *Server) handleBazaarApproval(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approvalRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.SetBazaarApproval(r.Context(), actor, chi.URLParam(r, "expenseID"), req.Approve); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finalized"})
}

func (s *Server) handleDepositApproval(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approvalRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.SetDepositApproval(r.Context(), actor, chi.URLParam(r, "depositID"), req.Approve); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finalized"})
}

func (s *Server) handleIndividualCostApproval(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req approvalRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.SetIndividualCostApproval(r.Context(), actor, chi.URLParam(r, "costID"), req.Approve, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "finalized"})
}

func (s *Server) handleListBazaar(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	expenses, err := s.ledger.BazaarExpenses(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleListDeposits(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	deposits, err := s.ledger.Deposits(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deposits)
}

func (s *Server) handleListFixedCosts(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	costs, err := s.ledger.FixedCosts(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *Server) handleListIndividualCosts(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	costs, err := s.ledger.IndividualCosts(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *Server) handleConsumptionRates(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rates, err := s.ledger.ConsumptionRates(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
