package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

const teamColumns = `id, name, description, created_by, created_at, updated_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a team repository that uses the given db for persistence.
// Members live in team_members keyed by (team_id, user_id), so a user can join a team once.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the team with its members, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	ex := db.ExecutorFrom(ctx, r.conn)
	row := ex.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Members, err = r.listMembers(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns the teams the user belongs to, newest first, with members loaded.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx,
		`SELECT t.id, t.name, t.description, t.created_by, t.created_at, t.updated_at
		 FROM teams t JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = $1 ORDER BY t.created_at DESC, t.id`, userID)
	if err != nil {
		return nil, err
	}
	var out []*domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	for _, t := range out {
		if t.Members, err = r.listMembers(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepository) listMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx,
		`SELECT user_id, role, joined_at FROM team_members WHERE team_id = $1 ORDER BY joined_at, user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Member
	for rows.Next() {
		var (
			m    domain.Member
			role string
		)
		if err := rows.Scan(&m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create persists the team row and its initial members.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Team) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Description, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	for _, m := range t.Members {
		if _, err := r.AddMember(ctx, t.ID, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *domain.Team) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`UPDATE teams SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.UpdatedAt)
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	return err
}

// AddMember is idempotent: an existing (team, user) row is left untouched.
func (r *PostgresRepository) AddMember(ctx context.Context, teamID string, m domain.Member) (bool, error) {
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (team_id, user_id) DO NOTHING`,
		teamID, m.UserID, string(m.Role), m.JoinedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetMember returns the user's membership, or nil if the user is not on the team.
func (r *PostgresRepository) GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error) {
	var (
		m    domain.Member
		role string
	)
	err := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT user_id, role, joined_at FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID).Scan(&m.UserID, &role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTeam(s scanner) (*domain.Team, error) {
	var t domain.Team
	if err := s.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
