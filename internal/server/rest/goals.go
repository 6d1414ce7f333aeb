package rest

import (
	"net/http"

	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createGoalRequest struct {
	Name         string           `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Description  string           `json:"description"`
}

type updateGoalRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Description  *string          `json:"description"`
}

func (s *Server) createGoal(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req createGoalRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	goal, err := s.svc.Goals.Create(r.Context(), p.UserID, services.GoalInput{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Description:  req.Description,
	})
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{"goal": goal})
}

func (s *Server) listGoals(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	goals, err := s.svc.Goals.List(r.Context(), p.UserID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, goals)
}

func (s *Server) goalSummary(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	summary, err := s.svc.Goals.Summary(r.Context(), p.UserID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *Server) getGoal(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	goal, err := s.svc.Goals.Get(r.Context(), p.UserID, chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) updateGoal(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req updateGoalRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	goal, err := s.svc.Goals.Update(r.Context(), p.UserID, chi.URLParam(r, "id"), models.GoalPatch{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Description:  req.Description,
	})
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) deleteGoal(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.svc.Goals.Delete(r.Context(), p.UserID, id); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, messageResponse("goal %s deleted", id))
}
