package server

import (
	"net/http"
)

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cycles, err := s.cycles.Cycles(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	cycle, err := s.cycles.Cycle(r.Context(), actor, cycleID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

type closeCycleRequest struct {
	NextName  string `json:"next_name" validate:"max=120"`
	NextStart string `json:"next_start" validate:"omitempty,datetime=2006-01-02"`
	NextEnd   string `json:"next_end" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleCloseCycle(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req closeCycleRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.cycles.CloseMonth(r.Context(), actor, req.NextName, req.NextStart, req.NextEnd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type renameCycleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

func (s *Server) handleRenameCycle(w http.ResponseWriter, r *http.Request) {
	actor, err := s.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req renameCycleRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.cycles.Rename(r.Context(), actor, cycleID(r), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}
