// Package handler содержит HTTP-обработчики API сервиса биллинга.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/billing-system/internal/model"
	"github.com/mmeshcher/billing-system/internal/repository"
	"github.com/mmeshcher/billing-system/internal/stream"
	"github.com/mmeshcher/billing-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreatePayment(ctx context.Context, in model.PaymentInput) (*model.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	GetPayment(ctx context.Context, id string) (*model.Payment, error)
	ListPayments(ctx context.Context, invoiceID, clientID string) ([]model.Payment, error)

	CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, id string, in model.ClientInput) (*model.Client, error)
	DeleteClient(ctx context.Context, id string) error

	CreateInvoice(ctx context.Context, in model.InvoiceInput) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, clientID string) ([]model.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context) ([]model.Note, error)
	UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Handler реализует HTTP-обработчики API сервиса биллинга.
type Handler struct {
	service Service
	logger  *zap.Logger
	hub     *stream.Hub
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, hub *stream.Hub) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		hub:     hub,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

// writeError отображает ошибки доменных операций на HTTP-статусы. Конфликт
// транзакции отдаётся как 409, чтобы клиент мог повторить запрос; внутренние
// ошибки наружу не раскрываются.
func (h *Handler) writeError(w http.ResponseWriter, err error, logMsg string) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrNoteNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrTransactionConflict):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		h.logger.Error(logMsg, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}
