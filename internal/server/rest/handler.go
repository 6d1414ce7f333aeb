package rest

import (
	"net/http"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type avatarRequest struct {
	ContentType string `json:"content_type"`
}

type authResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

func newAuthResponse(res *services.AuthResult) authResponse {
	return authResponse{Token: res.Tokens.AccessToken, RefreshToken: res.Tokens.RefreshToken, User: res.User}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	res, err := s.svc.Users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", res.User.ID, "username", res.User.Username)
	respondWithJSON(w, http.StatusCreated, newAuthResponse(res))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	res, err := s.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newAuthResponse(res))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	pair, err := s.svc.Users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{Token: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// federatedLogin exchanges a provider ID token for an app session.
func (s *Server) federatedLogin(w http.ResponseWriter, r *http.Request) {
	if s.svc.Verifier == nil {
		respondWithError(w, http.StatusNotImplemented, "federated login is not configured")
		return
	}

	token, err := identity.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	id, err := s.svc.Verifier.Verify(r.Context(), token)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	res, err := s.svc.Users.FederatedLogin(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newAuthResponse(res))
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	user, err := s.svc.Users.GetByID(r.Context(), p.UserID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) avatarUploadURL(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	var req avatarRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	up, err := s.svc.Avatars.UploadURL(r.Context(), p.UserID, req.ContentType)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, up)
}
