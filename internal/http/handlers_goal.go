package http

import (
	"net/http"

	"anjo/internal/core"
	"anjo/internal/log"
)

// goalView adds the derived progress percentage to a goal.
type goalView struct {
	core.Goal
	Progress float64 `json:"progress"`
}

func viewGoal(g core.Goal) goalView {
	return goalView{Goal: g, Progress: g.Progress()}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.ledger.Goals(r.Context(), owner(r))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, viewGoal(g))
	}
	NewResponse().JSON(map[string]any{"goals": views}).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if resp := decodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	g, err := s.ledger.CreateGoal(r.Context(), owner(r), req.goal(""))
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(viewGoal(g)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if resp := decodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	g, err := s.ledger.UpdateGoal(r.Context(), owner(r), req.goal(r.PathValue("id")))
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewResponse().JSON(viewGoal(g)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteGoal(r.Context(), owner(r), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if resp := decodeJSON(w, r, &req); resp != nil {
		resp.Write(w)
		return
	}
	res, err := s.ledger.Deposit(r.Context(), owner(r), r.PathValue("id"), mustCents(req.Amount), req.SubGoalID)
	if err != nil {
		s.fail(w, r, log.OpDeposit, err)
		return
	}
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.Predict(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}
