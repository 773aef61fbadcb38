package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-system/internal/model"
)

type invoiceRequest struct {
	ClientID string     `json:"clientId"`
	Number   string     `json:"number"`
	Total    float64    `json:"total"`
	IssuedAt *time.Time `json:"issuedAt,omitempty"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
}

type invoiceResponse struct {
	ID              string  `json:"id"`
	ClientID        string  `json:"clientId"`
	Number          string  `json:"number"`
	Total           float64 `json:"total"`
	PaidAmount      float64 `json:"paidAmount"`
	RemainingAmount float64 `json:"remainingAmount"`
	Status          string  `json:"status"`
	IssuedAt        string  `json:"issuedAt"`
	DueDate         *string `json:"dueDate,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toInvoiceResponse(inv *model.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:              inv.ID,
		ClientID:        inv.ClientID,
		Number:          inv.Number,
		Total:           inv.Total.InexactFloat64(),
		PaidAmount:      inv.PaidAmount.InexactFloat64(),
		RemainingAmount: inv.RemainingAmount.InexactFloat64(),
		Status:          string(inv.Status),
		IssuedAt:        inv.IssuedAt.Format(time.RFC3339),
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       inv.UpdatedAt.Format(time.RFC3339),
	}
	if inv.DueDate != nil {
		due := inv.DueDate.Format(time.RFC3339)
		resp.DueDate = &due
	}
	return resp
}

// CreateInvoice создаёт новый счёт со статусом pending.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := model.InvoiceInput{
		ClientID: req.ClientID,
		Number:   req.Number,
		Total:    decimal.NewFromFloat(req.Total),
		DueDate:  req.DueDate,
	}
	if req.IssuedAt != nil {
		in.IssuedAt = *req.IssuedAt
	}

	inv, err := h.service.CreateInvoice(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "create invoice error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

// GetInvoice возвращает счёт по идентификатору.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get invoice error")
		return
	}

	h.writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// ListInvoices возвращает счета, при наличии фильтра — по клиенту.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")

	invoices, err := h.service.ListInvoices(r.Context(), clientID)
	if err != nil {
		h.writeError(w, err, "list invoices error")
		return
	}

	if len(invoices) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		resp = append(resp, toInvoiceResponse(&invoices[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteInvoice удаляет счёт. Его платежи остаются.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteInvoice(r.Context(), id); err != nil {
		h.writeError(w, err, "delete invoice error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
