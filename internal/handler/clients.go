package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/billing-system/internal/model"
)

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type clientResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	TotalSpent float64 `json:"totalSpent"`
	CreatedAt  string  `json:"createdAt"`
}

func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		TotalSpent: c.TotalSpent.InexactFloat64(),
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

// CreateClient создаёт нового клиента.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.CreateClient(r.Context(), model.ClientInput(req))
	if err != nil {
		h.writeError(w, err, "create client error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toClientResponse(c))
}

// GetClient возвращает клиента по идентификатору.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get client error")
		return
	}

	h.writeJSON(w, http.StatusOK, toClientResponse(c))
}

// ListClients возвращает всех клиентов.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, err, "list clients error")
		return
	}

	if len(clients) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]clientResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, toClientResponse(&clients[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateClient обновляет описательные поля клиента.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req clientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.UpdateClient(r.Context(), id, model.ClientInput(req))
	if err != nil {
		h.writeError(w, err, "update client error")
		return
	}

	h.writeJSON(w, http.StatusOK, toClientResponse(c))
}

// DeleteClient удаляет клиента.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.writeError(w, err, "delete client error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
