package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
)

// assigneeFK is the constraint Postgres names for cards.assignee_id REFERENCES users(id).
const assigneeFK = "cards_assignee_id_fkey"

const cardColumns = `id, board_id, column_id, status, title, description, assignee_id, due_date,
	priority, created_by, created_at, updated_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a card repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the card for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListByBoard returns every card on the board. Order is by creation; display order comes from the board.
func (r *PostgresRepository) ListByBoard(ctx context.Context, boardID string) ([]*domain.Card, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE board_id = $1 ORDER BY created_at, id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create persists a new card. The card must have ID set. An unknown assignee
// returns domain.ErrAssigneeNotFound.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Card) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO cards (`+cardColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.BoardID, string(c.ColumnID), string(c.Status), c.Title, c.Description,
		nullString(c.AssigneeID), c.DueDate, string(c.Priority), c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return mapWriteErr(err)
}

func (r *PostgresRepository) Update(ctx context.Context, c *domain.Card) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`UPDATE cards SET title = $2, description = $3, assignee_id = $4, due_date = $5,
		 priority = $6, updated_at = $7 WHERE id = $1`,
		c.ID, c.Title, c.Description, nullString(c.AssigneeID), c.DueDate, string(c.Priority), c.UpdatedAt)
	return mapWriteErr(err)
}

func mapWriteErr(err error) error {
	if db.IsForeignKeyViolation(err, assigneeFK) {
		return domain.ErrAssigneeNotFound
	}
	return err
}

func (r *PostgresRepository) SetColumn(ctx context.Context, id string, col domain.ColumnID, updatedAt time.Time) (bool, error) {
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`UPDATE cards SET column_id = $2, status = $2, updated_at = $3 WHERE id = $1`,
		id, string(col), updatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) DeleteByBoard(ctx context.Context, boardID string) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM cards WHERE board_id = $1`, boardID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var (
		c        domain.Card
		col      string
		status   string
		priority string
		assignee sql.NullString
		due      sql.NullTime
	)
	err := s.Scan(&c.ID, &c.BoardID, &col, &status, &c.Title, &c.Description, &assignee, &due,
		&priority, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ColumnID = domain.ColumnID(col)
	c.Status = domain.ColumnID(status)
	c.Priority = domain.Priority(priority)
	if assignee.Valid {
		c.AssigneeID = assignee.String
	}
	if due.Valid {
		t := due.Time
		c.DueDate = &t
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
