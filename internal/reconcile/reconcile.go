// Package reconcile содержит расчёт балансов счёта при проводке платежей.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-system/internal/model"
)

// Balances описывает новое состояние оплаты счёта после проводки.
type Balances struct {
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          model.InvoiceStatus
}

// Apply рассчитывает состояние счёта после зачисления платежа на сумму amount.
// Статус не откатывается назад: при росте оплаченной суммы возможны только
// переходы pending → partial → paid.
func Apply(inv *model.Invoice, amount decimal.Decimal) Balances {
	paid := inv.PaidAmount.Add(amount)
	remaining := inv.Total.Sub(paid)

	status := inv.Status
	switch {
	case remaining.Sign() <= 0:
		status = model.InvoiceStatusPaid
	case paid.Sign() > 0:
		status = model.InvoiceStatusPartial
	}

	return Balances{
		PaidAmount:      paid,
		RemainingAmount: remaining,
		Status:          status,
	}
}

// Reverse рассчитывает состояние счёта после отмены платежа на сумму amount.
// Пороги статусов не являются зеркальным отражением Apply: Apply переводит
// счёт в partial при paid > 0, Reverse возвращает pending при paid <= 0.
// Именно такое согласование границ делает пару операций взаимно обратной
// в точке нулевого баланса.
func Reverse(inv *model.Invoice, amount decimal.Decimal) Balances {
	paid := inv.PaidAmount.Sub(amount)
	remaining := inv.Total.Sub(paid)

	status := inv.Status
	switch {
	case paid.Sign() <= 0:
		status = model.InvoiceStatusPending
	case remaining.Sign() > 0:
		status = model.InvoiceStatusPartial
	}

	return Balances{
		PaidAmount:      paid,
		RemainingAmount: remaining,
		Status:          status,
	}
}
