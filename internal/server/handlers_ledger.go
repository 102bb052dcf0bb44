package server

import (
	"net/http"

	"github.com/ydrx/ydrx/internal/interfaces"
)

// handlePurchase serves POST /api/purchase for the signed-in user.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req struct {
		Items []interfaces.PurchaseLine `json:"items"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	order, err := s.app.LedgerService.Purchase(r.Context(), user.ID, req.Items)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, order)
}

// handleOrders serves GET /api/orders: the signed-in user's history.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	orders, err := s.app.LedgerService.OrdersForUser(r.Context(), user.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// handleTopups serves GET (admin review queue) and POST (file a request).
func (s *Server) handleTopups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.requireAdmin(w, r) == nil {
			return
		}
		topups, err := s.app.LedgerService.ListTopups(r.Context())
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"topups": topups})

	case http.MethodPost:
		user := s.requireUser(w, r)
		if user == nil {
			return
		}
		var req struct {
			Amount    float64 `json:"amount"`
			Reference string  `json:"reference"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		topup, err := s.app.LedgerService.RequestTopup(r.Context(), user.ID, req.Amount, req.Reference)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, topup)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleTopupApprove(w http.ResponseWriter, r *http.Request, topupID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	topup, err := s.app.LedgerService.ApproveTopup(r.Context(), topupID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, topup)
}

func (s *Server) handleTopupReject(w http.ResponseWriter, r *http.Request, topupID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	topup, err := s.app.LedgerService.RejectTopup(r.Context(), topupID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, topup)
}
