package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/billing-system/internal/model"
)

// CreateClient создаёт нового клиента с нулевой накопленной суммой оплат.
func (r *PostgresRepository) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	c := model.Client{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (id, name, email, phone) VALUES ($1, $2, $3, $4)
		 RETURNING total_spent, created_at`,
		c.ID, c.Name, c.Email, c.Phone,
	).Scan(&c.TotalSpent, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}

	return &c, nil
}

// GetClient возвращает клиента по идентификатору.
func (r *PostgresRepository) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, total_spent, created_at FROM clients WHERE id = $1`,
		id,
	)

	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalSpent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return &c, nil
}

// ListClients возвращает всех клиентов, отсортированных по дате создания.
func (r *PostgresRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, phone, total_spent, created_at
		 FROM clients
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	var res []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalSpent, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateClient обновляет описательные поля клиента. Поле total_spent
// изменяется только проводкой платежей и здесь не трогается.
func (r *PostgresRepository) UpdateClient(ctx context.Context, id string, in model.ClientInput) (*model.Client, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE clients SET name = $2, email = $3, phone = $4 WHERE id = $1
		 RETURNING id, name, email, phone, total_spent, created_at`,
		id, in.Name, in.Email, in.Phone,
	)

	var c model.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TotalSpent, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("update client: %w", err)
	}

	return &c, nil
}

// DeleteClient удаляет клиента. Его счета и платежи остаются на месте.
func (r *PostgresRepository) DeleteClient(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
