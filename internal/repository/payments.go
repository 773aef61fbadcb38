package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/billing-system/internal/model"
	"github.com/mmeshcher/billing-system/internal/reconcile"
)

const paymentColumns = `id, invoice_id, client_id, amount, method, status, reference, paid_at, notes, created_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	var method, status string
	err := row.Scan(
		&p.ID, &p.InvoiceID, &p.ClientID, &p.Amount,
		&method, &status, &p.Reference, &p.Date, &p.Notes, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

// ApplyPayment атомарно проводит платёж: создаёт запись платежа, обновляет
// балансы и статус счёта и увеличивает накопленную сумму оплат клиента.
// Строки счёта и клиента блокируются на время транзакции, поэтому
// конкурентные проводки по одному счёту не теряют обновлений. При любой
// ошибке ни одно из трёх изменений не становится видимым.
func (r *PostgresRepository) ApplyPayment(ctx context.Context, in model.PaymentInput) (*model.Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Порядок блокировок счёт → клиент одинаков для прямой и обратной
	// проводки, иначе возможен дедлок.
	inv := model.Invoice{ID: in.InvoiceID}
	var invStatus string
	err = tx.QueryRow(ctx,
		`SELECT total, paid_amount, status FROM invoices WHERE id = $1 FOR UPDATE`,
		in.InvoiceID,
	).Scan(&inv.Total, &inv.PaidAmount, &invStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, mapConflict(fmt.Errorf("lock invoice: %w", err))
	}
	inv.Status = model.InvoiceStatus(invStatus)

	var dummy int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM clients WHERE id = $1 FOR UPDATE`, in.ClientID,
	).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, mapConflict(fmt.Errorf("lock client: %w", err))
	}

	balances := reconcile.Apply(&inv, in.Amount)

	p := model.Payment{
		ID:        uuid.NewString(),
		InvoiceID: in.InvoiceID,
		ClientID:  in.ClientID,
		Amount:    in.Amount,
		Method:    in.Method,
		Status:    model.PaymentStatusCompleted,
		Reference: in.Reference,
		Date:      in.Date,
		Notes:     in.Notes,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO payments (id, invoice_id, client_id, amount, method, status, reference, paid_at, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		p.ID, p.InvoiceID, p.ClientID, p.Amount, string(p.Method), string(p.Status),
		p.Reference, p.Date, p.Notes,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("insert payment: %w", err))
	}

	_, err = tx.Exec(ctx,
		`UPDATE invoices
		 SET paid_amount = $2, remaining_amount = $3, status = $4, updated_at = now()
		 WHERE id = $1`,
		in.InvoiceID, balances.PaidAmount, balances.RemainingAmount, string(balances.Status),
	)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("update invoice: %w", err))
	}

	_, err = tx.Exec(ctx,
		`UPDATE clients SET total_spent = total_spent + $2 WHERE id = $1`,
		in.ClientID, in.Amount,
	)
	if err != nil {
		return nil, mapConflict(fmt.Errorf("update client: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapConflict(fmt.Errorf("commit tx: %w", err))
	}

	return &p, nil
}

// ReversePayment атомарно отменяет платёж: удаляет запись, откатывает балансы
// счёта и уменьшает накопленную сумму оплат клиента. Если счёт к этому моменту
// удалён, его изменение пропускается, но платёж всё равно удаляется и сумма
// клиента уменьшается — прямая проводка требует существования счёта, обратная
// его отсутствие переживает. Второй результат сообщает, был ли изменён счёт.
func (r *PostgresRepository) ReversePayment(ctx context.Context, id string) (*model.Payment, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPayment(tx.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrPaymentNotFound
		}
		return nil, false, mapConflict(fmt.Errorf("lock payment: %w", err))
	}

	inv := model.Invoice{ID: p.InvoiceID}
	var invStatus string
	invoiceExists := true
	err = tx.QueryRow(ctx,
		`SELECT total, paid_amount, status FROM invoices WHERE id = $1 FOR UPDATE`,
		p.InvoiceID,
	).Scan(&inv.Total, &inv.PaidAmount, &invStatus)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, mapConflict(fmt.Errorf("lock invoice: %w", err))
		}
		invoiceExists = false
	}

	if invoiceExists {
		inv.Status = model.InvoiceStatus(invStatus)
		balances := reconcile.Reverse(&inv, p.Amount)

		_, err = tx.Exec(ctx,
			`UPDATE invoices
			 SET paid_amount = $2, remaining_amount = $3, status = $4, updated_at = now()
			 WHERE id = $1`,
			p.InvoiceID, balances.PaidAmount, balances.RemainingAmount, string(balances.Status),
		)
		if err != nil {
			return nil, false, mapConflict(fmt.Errorf("update invoice: %w", err))
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE clients SET total_spent = total_spent - $2 WHERE id = $1`,
		p.ClientID, p.Amount,
	)
	if err != nil {
		return nil, false, mapConflict(fmt.Errorf("update client: %w", err))
	}

	_, err = tx.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return nil, false, mapConflict(fmt.Errorf("delete payment: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, mapConflict(fmt.Errorf("commit tx: %w", err))
	}

	return p, invoiceExists, nil
}

// GetPayment возвращает платёж по идентификатору.
func (r *PostgresRepository) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// ListPayments возвращает платежи с необязательной фильтрацией по счёту и клиенту.
func (r *PostgresRepository) ListPayments(ctx context.Context, invoiceID, clientID string) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var args []any
	switch {
	case invoiceID != "" && clientID != "":
		query += ` WHERE invoice_id = $1 AND client_id = $2`
		args = append(args, invoiceID, clientID)
	case invoiceID != "":
		query += ` WHERE invoice_id = $1`
		args = append(args, invoiceID)
	case clientID != "":
		query += ` WHERE client_id = $1`
		args = append(args, clientID)
	}
	query += ` ORDER BY paid_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var res []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
