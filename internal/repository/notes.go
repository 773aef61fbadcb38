package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/billing-system/internal/model"
)

const noteColumns = `id, title, content, pinned, created_at, updated_at`

func scanNote(row pgx.Row) (*model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNote создаёт заметку.
func (r *PostgresRepository) CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO notes (id, title, content, pinned) VALUES ($1, $2, $3, $4)
		 RETURNING `+noteColumns,
		uuid.NewString(), in.Title, in.Content, in.Pinned,
	)

	n, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// GetNote возвращает заметку по идентификатору.
func (r *PostgresRepository) GetNote(ctx context.Context, id string) (*model.Note, error) {
	n, err := scanNote(r.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// ListNotes возвращает все заметки, закреплённые — первыми.
func (r *PostgresRepository) ListNotes(ctx context.Context) ([]model.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes ORDER BY pinned DESC, updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer rows.Close()

	var res []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		res = append(res, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateNote обновляет заметку.
func (r *PostgresRepository) UpdateNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE notes SET title = $2, content = $3, pinned = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+noteColumns,
		id, in.Title, in.Content, in.Pinned,
	)

	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// DeleteNote удаляет заметку.
func (r *PostgresRepository) DeleteNote(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}
