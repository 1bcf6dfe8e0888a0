package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mrahman/messbook/internal/models"
)

type mealRateResponse struct {
	MealRate decimal.Decimal `json:"meal_rate"`
}

func (s *Server) handleMealRate(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := s.finance.CurrentMealRate(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mealRateResponse{MealRate: rate})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	overview, err := s.finance.Overview(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	today := r.URL.Query().Get("date")
	if today == "" {
		today = time.Now().Format(models.DateLayout)
	}
	stats, err := s.finance.Dashboard(r.Context(), actor, today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAllBalances(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	balances, err := s.finance.AllBalances(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleMemberBalance(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := s.finance.Balance(r.Context(), actor, cycleID(r), chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	snapshots, err := s.finance.Snapshots(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}
