package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mrahman/messbook/internal/middleware"
	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/service"
)

type createMessRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Address  string `json:"address" validate:"max=300"`
	Timezone string `json:"timezone" validate:"omitempty,max=64"`
}

func (s *Server) handleCreateMess(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, service.ErrUnauthenticated)
		return
	}

	var req createMessRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mess, err := s.mess.CreateMess(r.Context(), userID, req.Name, req.Address, req.Timezone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mess)
}

func (s *Server) handleGetMess(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	mess, err := s.mess.Mess(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mess)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	members, err := s.mess.Members(r.Context(), actor, activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=member cook"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addMemberRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	member, err := s.mess.AddMember(r.Context(), actor, req.Email, models.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

type transferManagerRequest struct {
	ToMemberID string `json:"to_member_id" validate:"required,uuid4"`
}

func (s *Server) handleTransferManager(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req transferManagerRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.mess.TransferManager(r.Context(), actor, req.ToMemberID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (s *Server) handleGetCutoffs(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := s.mess.CutoffConfig(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type updateCutoffsRequest struct {
	Breakfast string `json:"breakfast_cutoff" validate:"required,len=5"`
	Lunch     string `json:"lunch_cutoff" validate:"required,len=5"`
	Dinner    string `json:"dinner_cutoff" validate:"required,len=5"`
}

func (s *Server) handleUpdateCutoffs(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateCutoffsRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.mess.UpdateCutoffs(r.Context(), actor, req.Breakfast, req.Lunch, req.Dinner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.mess.Activity(r.Context(), actor, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// cycleID pulls the route's cycle parameter.
func cycleID(r *http.Request) string {
	return chi.URLParam(r, "cycleID")
}
