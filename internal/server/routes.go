package server

import (
	"net/http"
	"strings"
	"time"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Auth
	mux.HandleFunc("/api/auth/register", s.handleAuthRegister)
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("/api/auth/me", s.handleAuthMe)

	// Catalog
	mux.HandleFunc("/api/products/", s.routeProducts)
	mux.HandleFunc("/api/products", s.handleProducts)

	// Purchases
	mux.HandleFunc("/api/purchase", s.handlePurchase)
	mux.HandleFunc("/api/orders", s.handleOrders)

	// Top-ups
	mux.HandleFunc("/api/topups/", s.routeTopups)
	mux.HandleFunc("/api/topups", s.handleTopups)

	// Admin
	mux.HandleFunc("/api/admin/reset", s.handleAdminReset)
	mux.HandleFunc("/api/admin/sales/chart", s.handleAdminSalesChart)
}

// routeProducts dispatches /api/products/{id} and /api/products/{id}/stock.
func (s *Server) routeProducts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "product id is required in path")
		return
	}

	if strings.HasSuffix(path, "/stock") {
		s.handleProductStock(w, r, strings.TrimSuffix(path, "/stock"))
		return
	}
	if strings.Contains(path, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleProductUpdate(w, r, path)
}

// routeTopups dispatches /api/topups/{id}/approve and /api/topups/{id}/reject.
func (s *Server) routeTopups(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/topups/")

	switch {
	case strings.HasSuffix(path, "/approve"):
		s.handleTopupApprove(w, r, strings.TrimSuffix(path, "/approve"))
	case strings.HasSuffix(path, "/reject"):
		s.handleTopupReject(w, r, strings.TrimSuffix(path, "/reject"))
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
