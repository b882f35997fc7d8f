package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/audit/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
)

const auditColumns = `id, team_id, user_id, action, resource, ip, metadata, created_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE id = $1`, id)
	a, err := scanAuditLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListByTeam returns audit logs for the given team, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE team_id = $1
		 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, teamID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	uid := sql.NullString{String: a.UserID, Valid: a.UserID != ""}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.TeamID, uid, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(row scanner) (*domain.AuditLog, error) {
	var (
		a    domain.AuditLog
		uid  sql.NullString
		meta sql.NullString
	)
	if err := row.Scan(&a.ID, &a.TeamID, &uid, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.UserID = uid.String
	a.Metadata = meta.String
	return &a, nil
}
