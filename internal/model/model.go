// Package model содержит доменные сущности сервиса биллинга.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client представляет клиента компании и накопленную сумму его оплат.
type Client struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	TotalSpent decimal.Decimal
	CreatedAt  time.Time
}

// InvoiceStatus описывает статус оплаты счёта.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// Invoice описывает выставленный счёт и состояние его оплаты.
// Поля PaidAmount, RemainingAmount и Status изменяются только проводкой платежей.
type Invoice struct {
	ID              string
	ClientID        string
	Number          string
	Total           decimal.Decimal
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          InvoiceStatus
	IssuedAt        time.Time
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// PaymentStatus описывает статус платежа. При создании всегда записывается
// PaymentStatusCompleted; переходов между статусами нет.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment описывает платёж по счёту. Платёж неизменяем: создаётся проводкой
// и удаляется только обратной проводкой, операции обновления не существует.
type Payment struct {
	ID        string
	InvoiceID string
	ClientID  string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Status    PaymentStatus
	Reference string
	Date      time.Time
	Notes     string
	CreatedAt time.Time
}

// Product описывает позицию каталога товаров и услуг.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	SKU         string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Note описывает произвольную заметку.
type Note struct {
	ID        string
	Title     string
	Content   string
	Pinned    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClientInput содержит данные для создания или обновления клиента.
type ClientInput struct {
	Name  string
	Email string
	Phone string
}

// InvoiceInput содержит данные для создания счёта.
type InvoiceInput struct {
	ClientID string
	Number   string
	Total    decimal.Decimal
	IssuedAt time.Time
	DueDate  *time.Time
}

// PaymentInput содержит данные для проводки платежа.
type PaymentInput struct {
	InvoiceID string
	ClientID  string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference string
	Date      time.Time
	Notes     string
}

// ProductInput содержит данные для создания или обновления позиции каталога.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	SKU         string
	Active      bool
}

// NoteInput содержит данные для создания или обновления заметки.
type NoteInput struct {
	Title   string
	Content string
	Pinned  bool
}
