package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"grocery_sheets/internal/products"
	"grocery_sheets/internal/session"
	"grocery_sheets/internal/sheets"
)

type itemRequest struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Purchased bool    `json:"purchased"`
}

func (req *itemRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return "name is required"
	case req.Quantity < 0:
		return "quantity must not be negative"
	case req.UnitPrice < 0:
		return "unitPrice must not be negative"
	}
	return ""
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.container.View(r.URL.Query().Get("q")))
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	draft := products.NewDraft(req.Name, req.Quantity, req.UnitPrice, req.Purchased)
	product, err := s.container.Add(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	product := products.Product{ID: id, Name: req.Name, Purchased: req.Purchased}.
		Reprice(req.Quantity, req.UnitPrice)
	if err := s.container.Update(r.Context(), product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.container.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setPurchased(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Purchased bool `json:"purchased"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	product, err := s.container.SetPurchased(r.Context(), r.PathValue("id"), req.Purchased)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	if !s.session.Authenticated() {
		writeError(w, session.ErrNotAuthenticated)
		return
	}
	if err := s.container.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.container.View(""))
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *session.Profile `json:"user,omitempty"`
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: s.session.Authenticated(),
		User:          s.session.Profile(),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "accessToken is required"})
		return
	}

	if err := s.session.SignIn(r.Context(), req.AccessToken); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sign in"})
		return
	}
	s.getSession(w, r)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.SignOut(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sign out"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	msg := "remote spreadsheet call failed"
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		status, msg = http.StatusUnauthorized, "not signed in"
	case errors.Is(err, sheets.ErrNotFound):
		status, msg = http.StatusNotFound, "item not found"
	case errors.Is(err, sheets.ErrDuplicateID):
		status, msg = http.StatusConflict, "item id already exists"
	case errors.Is(err, sheets.ErrRangeFull):
		status, msg = http.StatusInsufficientStorage, "item list is full"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
