package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-system/internal/model"
)

type paymentRequest struct {
	InvoiceID string     `json:"invoiceId"`
	ClientID  string     `json:"clientId"`
	Amount    float64    `json:"amount"`
	Method    string     `json:"method"`
	Reference string     `json:"reference"`
	Date      *time.Time `json:"date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

type paymentResponse struct {
	ID        string  `json:"id"`
	InvoiceID string  `json:"invoiceId"`
	ClientID  string  `json:"clientId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Status    string  `json:"status"`
	Reference string  `json:"reference"`
	Date      string  `json:"date"`
	Notes     string  `json:"notes,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		InvoiceID: p.InvoiceID,
		ClientID:  p.ClientID,
		Amount:    p.Amount.InexactFloat64(),
		Method:    string(p.Method),
		Status:    string(p.Status),
		Reference: p.Reference,
		Date:      p.Date.Format(time.RFC3339),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// CreatePayment проводит новый платёж по счёту.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := model.PaymentInput{
		InvoiceID: req.InvoiceID,
		ClientID:  req.ClientID,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    model.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	p, err := h.service.CreatePayment(r.Context(), in)
	if err != nil {
		h.writeError(w, err, "create payment error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

// DeletePayment отменяет платёж и откатывает его влияние на балансы.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		h.writeError(w, err, "delete payment error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPayment возвращает платёж по идентификатору.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get payment error")
		return
	}

	h.writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// ListPayments возвращает платежи, при наличии фильтров — по счёту и клиенту.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	invoiceID := r.URL.Query().Get("invoice_id")
	clientID := r.URL.Query().Get("client_id")

	payments, err := h.service.ListPayments(r.Context(), invoiceID, clientID)
	if err != nil {
		h.writeError(w, err, "list payments error")
		return
	}

	if len(payments) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}
