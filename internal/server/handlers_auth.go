package server

import (
	"net/http"

	"github.com/ydrx/ydrx/internal/models"
)

// userView is the wire shape of a user. The password hash never leaves the
// server.
type userView struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Handle  string  `json:"handle"`
	Role    string  `json:"role"`
	Balance float64 `json:"balance"`
}

func viewOf(u *models.User) userView {
	return userView{
		ID:      u.ID,
		Email:   u.Email,
		Handle:  u.Handle,
		Role:    u.Role,
		Balance: u.Balance,
	}
}

func (s *Server) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Handle   string `json:"handle"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.AuthService.Register(r.Context(), req.Email, req.Password, req.Handle)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, viewOf(user))
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := s.app.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(user))
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.app.AuthService.Logout(r.Context()); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(user))
}
