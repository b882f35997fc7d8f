package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/board/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
)

const boardColumns = `id, team_id, name, description, columns, version, created_by, created_at, updated_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a board repository that uses the given db for persistence.
// Column definitions and card order are stored together as one JSONB document per board.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the board for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Board, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = $1`, id)
	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// ListByTeam returns the team's boards, newest first.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Board, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE team_id = $1 ORDER BY created_at DESC, id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create persists a new board. The board must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, b *domain.Board) error {
	cols, err := json.Marshal(b.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	_, err = db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.TeamID, b.Name, b.Description, string(cols), b.Version, b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, b *domain.Board) error {
	cols, err := json.Marshal(b.Columns)
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`UPDATE boards SET name = $3, description = $4, columns = $5, version = version + 1, updated_at = $6
		 WHERE id = $1 AND version = $2`,
		b.ID, b.Version, b.Name, b.Description, string(cols), b.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrVersionConflict
	}
	b.Version++
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (*domain.Board, error) {
	var (
		b    domain.Board
		cols []byte
	)
	if err := s.Scan(&b.ID, &b.TeamID, &b.Name, &b.Description, &cols, &b.Version,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cols, &b.Columns); err != nil {
		return nil, fmt.Errorf("decode columns for board %s: %w", b.ID, err)
	}
	for i := range b.Columns {
		if b.Columns[i].CardOrder == nil {
			b.Columns[i].CardOrder = domain.CardOrder{}
		}
	}
	return &b, nil
}
