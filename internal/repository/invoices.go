package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/billing-system/internal/model"
)

const invoiceColumns = `id, client_id, number, total, paid_amount, remaining_amount, status, issued_at, due_date, created_at, updated_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var inv model.Invoice
	var status string
	err := row.Scan(
		&inv.ID, &inv.ClientID, &inv.Number,
		&inv.Total, &inv.PaidAmount, &inv.RemainingAmount,
		&status, &inv.IssuedAt, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}

// CreateInvoice создаёт счёт с нулевой оплатой и статусом pending.
// Клиент должен существовать на момент создания.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, in model.InvoiceInput) (*model.Invoice, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, in.ClientID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	if !exists {
		return nil, ErrClientNotFound
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO invoices (id, client_id, number, total, remaining_amount, status, issued_at, due_date)
		 VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
		 RETURNING `+invoiceColumns,
		uuid.NewString(), in.ClientID, in.Number, in.Total,
		string(model.InvoiceStatusPending), in.IssuedAt, in.DueDate,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	return inv, nil
}

// GetInvoice возвращает счёт по идентификатору.
func (r *PostgresRepository) GetInvoice(ctx context.Context, id string) (*model.Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	return inv, nil
}

// ListInvoices возвращает счета, при непустом clientID — только счета этого клиента.
func (r *PostgresRepository) ListInvoices(ctx context.Context, clientID string) ([]model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY issued_at DESC`
	args := []any{}
	if clientID != "" {
		query = `SELECT ` + invoiceColumns + ` FROM invoices WHERE client_id = $1 ORDER BY issued_at DESC`
		args = append(args, clientID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var res []model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		res = append(res, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DeleteInvoice удаляет счёт. Платежи счёта остаются: их ссылки долговечны,
// обратная проводка по такому платежу пропустит изменение счёта.
func (r *PostgresRepository) DeleteInvoice(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
