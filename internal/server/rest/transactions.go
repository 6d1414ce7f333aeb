package rest

import (
	"net/http"

	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type postTransactionRequest struct {
	GoalID      string           `json:"goal_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Kind        models.EntryKind `json:"kind"`
	Type        models.EntryKind `json:"type"`
	Description string           `json:"description"`
}

// kind returns the posting kind. "type" is accepted for older clients.
func (r postTransactionRequest) kind() models.EntryKind {
	if r.Kind != "" {
		return r.Kind
	}
	return r.Type
}

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req postTransactionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	res, err := s.svc.Transactions.Post(r.Context(), p.UserID, services.PostingInput{
		GoalID:      req.GoalID,
		Amount:      req.Amount,
		Kind:        req.kind(),
		Description: req.Description,
	})
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	entries, err := s.svc.Transactions.ListByUser(r.Context(), p.UserID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (s *Server) listGoalTransactions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	entries, err := s.svc.Transactions.ListByGoal(r.Context(), p.UserID, chi.URLParam(r, "goal_id"))
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}
