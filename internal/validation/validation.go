// Package validation содержит проверки входных данных на границе хранилища.
package validation

import (
	"fmt"

	"github.com/mmeshcher/billing-system/internal/model"
)

// Error описывает ошибку валидации конкретного поля входных данных.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func fieldError(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

// ValidatePayment проверяет данные платежа перед началом транзакции проводки.
func ValidatePayment(in model.PaymentInput) error {
	if in.InvoiceID == "" {
		return fieldError("invoiceId", "required")
	}
	if in.ClientID == "" {
		return fieldError("clientId", "required")
	}
	if in.Amount.Sign() <= 0 {
		return fieldError("amount", "must be positive")
	}
	switch in.Method {
	case model.PaymentMethodCard, model.PaymentMethodCash, model.PaymentMethodTransfer:
	default:
		return fieldError("method", "must be one of card, cash, transfer")
	}
	return nil
}

// ValidateInvoice проверяет данные счёта перед созданием.
func ValidateInvoice(in model.InvoiceInput) error {
	if in.ClientID == "" {
		return fieldError("clientId", "required")
	}
	if in.Number == "" {
		return fieldError("number", "required")
	}
	if in.Total.Sign() < 0 {
		return fieldError("total", "must not be negative")
	}
	return nil
}

// ValidateClient проверяет данные клиента перед созданием или обновлением.
func ValidateClient(in model.ClientInput) error {
	if in.Name == "" {
		return fieldError("name", "required")
	}
	return nil
}

// ValidateProduct проверяет данные позиции каталога перед созданием или обновлением.
func ValidateProduct(in model.ProductInput) error {
	if in.Name == "" {
		return fieldError("name", "required")
	}
	if in.Price.Sign() < 0 {
		return fieldError("price", "must not be negative")
	}
	return nil
}

// ValidateNote проверяет данные заметки перед созданием или обновлением.
func ValidateNote(in model.NoteInput) error {
	if in.Title == "" {
		return fieldError("title", "required")
	}
	return nil
}
