package server

import (
	"net/http"
	"strconv"
)

// handleAdminReset serves POST /api/admin/reset: wipe the document and
// re-seed defaults. Disabled in production.
func (s *Server) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Reset endpoint disabled in production")
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	doc, err := s.app.Store.Reset(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	s.logger.Warn().Msg("Document reset via admin endpoint")
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "reset",
		"users":    len(doc.Users),
		"products": len(doc.Products),
	})
}

// handleAdminSalesChart serves GET /api/admin/sales/chart?days=N as PNG.
func (s *Server) handleAdminSalesChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			WriteError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	png, err := s.app.ReportService.SalesChartPNG(r.Context(), days)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
