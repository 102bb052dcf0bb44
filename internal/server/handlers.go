package server

import (
	"net/http"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// requireUser resolves the session or writes a 401. Returns nil on failure.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user, err := s.app.AuthService.CurrentUser(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return nil
	}
	return user
}

// requireAdmin resolves the session and checks the admin role. Returns nil
// after writing the response on failure.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) *models.User {
	user := s.requireUser(w, r)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		WriteError(w, http.StatusForbidden, "admin access required")
		return nil
	}
	return user
}
