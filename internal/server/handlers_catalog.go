package server

import (
	"net/http"

	"github.com/ydrx/ydrx/internal/interfaces"
)

// handleProducts serves GET (list) and POST (create, admin) on /api/products.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleProductList(w, r)
	case http.MethodPost:
		s.handleProductCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleProductList returns active products; admins see the whole catalog
// with ?all=true.
func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		if s.requireAdmin(w, r) == nil {
			return
		}
		products, err := s.app.CatalogService.ListProducts(r.Context())
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"products": products})
		return
	}

	products, err := s.app.CatalogService.ListActiveProducts(r.Context())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	if s.requireAdmin(w, r) == nil {
		return
	}

	var req struct {
		Name          string  `json:"name"`
		PerfilPrice   float64 `json:"perfil_price"`
		CompletaPrice float64 `json:"completa_price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	product, err := s.app.CatalogService.CreateProduct(r.Context(), req.Name, req.PerfilPrice, req.CompletaPrice)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, product)
}

// handleProductUpdate serves PATCH /api/products/{id}. Absent fields are
// left untouched.
func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request, productID string) {
	if !RequireMethod(w, r, http.MethodPatch) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	var req struct {
		Name          *string  `json:"name"`
		Active        *bool    `json:"active"`
		PerfilPrice   *float64 `json:"perfil_price"`
		CompletaPrice *float64 `json:"completa_price"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	product, err := s.app.CatalogService.UpdateProduct(r.Context(), productID, interfaces.ProductPatch{
		Name:          req.Name,
		Active:        req.Active,
		PerfilPrice:   req.PerfilPrice,
		CompletaPrice: req.CompletaPrice,
	})
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, product)
}

// handleProductStock serves POST /api/products/{id}/stock.
func (s *Server) handleProductStock(w http.ResponseWriter, r *http.Request, productID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.requireAdmin(w, r) == nil {
		return
	}

	var req struct {
		Variant string   `json:"variant"`
		Tokens  []string `json:"tokens"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	added, err := s.app.CatalogService.AddStock(r.Context(), productID, req.Variant, req.Tokens)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"added": added})
}
