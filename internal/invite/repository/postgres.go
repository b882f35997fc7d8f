package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/invite/domain"
	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
)

// pendingIndex is the partial unique index that allows one pending invite per (team, invitee).
const pendingIndex = "team_invites_one_pending_idx"

const inviteColumns = `id, team_id, inviter_id, invitee_id, email, role, status, expires_at, responded_at, created_at`

type PostgresRepository struct {
	conn *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository returns an invite repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// GetByID returns the invite for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Invite, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM team_invites WHERE id = $1`, id)
	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (r *PostgresRepository) ListByInvitee(ctx context.Context, inviteeID string, statuses ...domain.Status) ([]*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM team_invites WHERE invitee_id = $1`
	args := []any{inviteeID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			args = append(args, string(s))
			placeholders[i] = fmt.Sprintf("$%d", i+2)
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	return r.list(ctx, query+` ORDER BY created_at DESC, id`, args...)
}

func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID string) ([]*domain.Invite, error) {
	return r.list(ctx, `SELECT `+inviteColumns+` FROM team_invites WHERE team_id = $1 ORDER BY created_at DESC, id`, teamID)
}

func (r *PostgresRepository) FindPending(ctx context.Context, teamID, inviteeID string) (*domain.Invite, error) {
	row := db.ExecutorFrom(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM team_invites WHERE team_id = $1 AND invitee_id = $2 AND status = 'pending'`,
		teamID, inviteeID)
	inv, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inv, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Invite, error) {
	rows, err := db.ExecutorFrom(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Create inserts the invite. The partial unique index turns a concurrent second
// pending invite for the same pair into ErrDuplicatePending.
func (r *PostgresRepository) Create(ctx context.Context, inv *domain.Invite) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO team_invites (`+inviteColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.TeamID, inv.InviterID, inv.InviteeID, inv.Email, string(inv.Role), string(inv.Status),
		inv.ExpiresAt, inv.RespondedAt, inv.CreatedAt)
	if db.IsUniqueViolation(err, pendingIndex) {
		return domain.ErrDuplicatePending
	}
	return err
}

func (r *PostgresRepository) Transition(ctx context.Context, id string, status domain.Status, respondedAt time.Time) error {
	res, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx,
		`UPDATE team_invites SET status = $2, responded_at = $3 WHERE id = $1 AND status = 'pending'`,
		id, string(status), respondedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotPending
	}
	return nil
}

func (r *PostgresRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	_, err := db.ExecutorFrom(ctx, r.conn).ExecContext(ctx, `DELETE FROM team_invites WHERE team_id = $1`, teamID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(s scanner) (*domain.Invite, error) {
	var (
		inv       domain.Invite
		role      string
		status    string
		responded sql.NullTime
	)
	err := s.Scan(&inv.ID, &inv.TeamID, &inv.InviterID, &inv.InviteeID, &inv.Email, &role, &status,
		&inv.ExpiresAt, &responded, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = teamdomain.Role(role)
	inv.Status = domain.Status(status)
	if responded.Valid {
		t := responded.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}
