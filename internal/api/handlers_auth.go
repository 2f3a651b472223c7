package api

import (
	"net/http"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	user, err := s.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	user, err := s.users.SetPhone(r.Context(), identity.UserID, req.Phone)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handlePushToken(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req pushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	if err := s.users.SetPushToken(r.Context(), identity.UserID, req.Token); err != nil {
		respondError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
