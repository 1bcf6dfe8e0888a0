package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

type toggleMealRequest struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot    string `json:"slot" validate:"required,oneof=breakfast lunch dinner"`
	Present bool   `json:"present"`
}

func (s *Server) handleToggleMeal(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req toggleMealRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.meals.ToggleMeal(r.Context(), actor, req.Date, models.Slot(req.Slot), req.Present); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type setGuestsRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot  string `json:"slot" validate:"required,oneof=breakfast lunch dinner"`
	Count int    `json:"count" validate:"min=0,max=10"`
}

func (s *Server) handleSetGuests(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req setGuestsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.meals.SetGuestMeal(r.Context(), actor, req.Date, models.Slot(req.Slot), req.Count); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type bulkMealEntry struct {
	MemberID  string `json:"member_id" validate:"required,uuid4"`
	Breakfast int    `json:"breakfast" validate:"min=0,max=11"`
	Lunch     int    `json:"lunch" validate:"min=0,max=11"`
	Dinner    int    `json:"dinner" validate:"min=0,max=11"`
}

type bulkMealsRequest struct {
	Date    string          `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []bulkMealEntry `json:"entries" validate:"required,min=1,dive"`
}

func (s *Server) handleBulkMeals(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req bulkMealsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updates := make([]storage.MealUpdate, 0, len(req.Entries))
	for _, e := range req.Entries {
		updates = append(updates, storage.MealUpdate{
			MemberID:  e.MemberID,
			Breakfast: e.Breakfast,
			Lunch:     e.Lunch,
			Dinner:    e.Dinner,
		})
	}

	if err := s.meals.ManagerBulkUpdate(r.Context(), actor, req.Date, updates); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDaySheet(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sheet, err := s.meals.DaySheet(r.Context(), actor, chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (s *Server) handleCycleMeals(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	meals, err := s.meals.CycleMeals(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

func (s *Server) handleMemberMeals(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	meals, err := s.meals.MemberMeals(r.Context(), actor, cycleID(r), chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}
