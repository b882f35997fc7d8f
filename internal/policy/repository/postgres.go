package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/domain"
)

const policyColumns = `id, team_id, name, rules, enabled, created_by, created_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the policy for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM team_policies WHERE id = $1`, id)
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListByTeam returns all policies of the team, oldest first.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error) {
	return r.list(ctx, `SELECT `+policyColumns+` FROM team_policies WHERE team_id = $1 ORDER BY created_at, id`, teamID)
}

// GetEnabledPoliciesByTeam returns the policies the evaluator should load for the team.
func (r *PostgresRepository) GetEnabledPoliciesByTeam(ctx context.Context, teamID string) ([]*domain.Policy, error) {
	return r.list(ctx, `SELECT `+policyColumns+` FROM team_policies WHERE team_id = $1 AND enabled ORDER BY created_at, id`, teamID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Policy, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create persists the policy. The policy must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO team_policies (`+policyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.TeamID, p.Name, p.Rules, p.Enabled, p.CreatedBy, p.CreatedAt)
	return err
}

// Delete removes the policy and reports whether it existed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM team_policies WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(s scanner) (*domain.Policy, error) {
	var p domain.Policy
	if err := s.Scan(&p.ID, &p.TeamID, &p.Name, &p.Rules, &p.Enabled, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
