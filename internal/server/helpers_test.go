package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ydrx/ydrx/internal/models"
)

func TestPathParam(t *testing.T) {
	tests := []struct {
		path, prefix, suffix, want string
	}{
		{"/api/products/p1", "/api/products/", "", "p1"},
		{"/api/products/p1/stock", "/api/products/", "/stock", "p1"},
		{"/api/topups/t_abc/approve", "/api/topups/", "/approve", "t_abc"},
		{"/api/other/p1", "/api/products/", "", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := PathParam(r, tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("PathParam(%q, %q, %q) = %q, want %q", tt.path, tt.prefix, tt.suffix, got, tt.want)
		}
	}
}

func TestWriteDomainError_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrNotAuthenticated, http.StatusUnauthorized},
		{models.ErrInvalidCredentials, http.StatusUnauthorized},
		{models.ErrEmailTaken, http.StatusConflict},
		{models.ErrHandleTaken, http.StatusConflict},
		{models.ErrTopupProcessed, http.StatusConflict},
		{models.ErrProductNotFound, http.StatusNotFound},
		{models.ErrTopupNotFound, http.StatusNotFound},
		{models.ErrVariantUnknown, http.StatusBadRequest},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{models.ErrInvalidEmail, http.StatusBadRequest},
		{models.ErrPasswordTooShort, http.StatusBadRequest},
		{models.ErrHandleTooShort, http.StatusBadRequest},
		{models.ErrEmptyPurchase, http.StatusBadRequest},
		{models.ErrNoStock, http.StatusUnprocessableEntity},
		{models.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("WriteDomainError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/health", nil)
	if RequireMethod(rec, r, http.MethodGet, http.MethodHead) {
		t.Error("DELETE should not pass")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow = %q", allow)
	}
}
