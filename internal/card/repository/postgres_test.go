package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db/migrate"
)

// newTestRepo migrates the database and inserts a user, team and board for cards to hang off.
func newTestRepo(t *testing.T) (*PostgresRepository, string, string) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Skipf("migrate: %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("Database connection failed (expected in test environment): %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	userID, teamID, boardID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	for _, stmt := range []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO users (id, name, email) VALUES ($1, 'Card Tester', $2)`, []any{userID, userID + "@example.com"}},
		{`INSERT INTO teams (id, name, created_by) VALUES ($1, 'Cards', $2)`, []any{teamID, userID}},
		{`INSERT INTO boards (id, team_id, name, columns, created_by) VALUES ($1, $2, 'Board', '[]', $3)`, []any{boardID, teamID, userID}},
	} {
		if _, err := conn.ExecContext(ctx, stmt.sql, stmt.args...); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	t.Cleanup(func() {
		// Boards and cards go with the team.
		_, _ = conn.ExecContext(context.Background(), `DELETE FROM teams WHERE id = $1`, teamID)
		_, _ = conn.ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})
	return NewPostgresRepository(conn), boardID, userID
}

func newCard(boardID, userID string) *domain.Card {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &domain.Card{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Title:     "card",
		Priority:  domain.PriorityMedium,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetColumn(domain.ColumnTodo)
	return c
}

func TestPostgresRepository_UnknownAssignee(t *testing.T) {
	repo, boardID, userID := newTestRepo(t)
	ctx := context.Background()

	c := newCard(boardID, userID)
	c.AssigneeID = "no-such-user"
	if err := repo.Create(ctx, c); !errors.Is(err, domain.ErrAssigneeNotFound) {
		t.Fatalf("Create with unknown assignee: err = %v, want ErrAssigneeNotFound", err)
	}

	c.AssigneeID = userID
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.AssigneeID = "no-such-user"
	if err := repo.Update(ctx, c); !errors.Is(err, domain.ErrAssigneeNotFound) {
		t.Errorf("Update with unknown assignee: err = %v, want ErrAssigneeNotFound", err)
	}
}

func TestPostgresRepository_SetColumnReportsMissingCard(t *testing.T) {
	repo, boardID, userID := newTestRepo(t)
	ctx := context.Background()

	c := newCard(boardID, userID)
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	found, err := repo.SetColumn(ctx, c.ID, domain.ColumnDone, time.Now())
	if err != nil || !found {
		t.Fatalf("SetColumn: found=%v err=%v", found, err)
	}
	stored, err := repo.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.ColumnID != domain.ColumnDone || stored.Status != domain.ColumnDone {
		t.Errorf("stored column/status = %s/%s, want done", stored.ColumnID, stored.Status)
	}

	if deleted, err := repo.Delete(ctx, c.ID); err != nil || !deleted {
		t.Fatalf("Delete: deleted=%v err=%v", deleted, err)
	}
	found, err = repo.SetColumn(ctx, c.ID, domain.ColumnTodo, time.Now())
	if err != nil || found {
		t.Errorf("SetColumn on deleted card: found=%v err=%v, want false, nil", found, err)
	}
	if deleted, err := repo.Delete(ctx, c.ID); err != nil || deleted {
		t.Errorf("second Delete: deleted=%v err=%v, want false, nil", deleted, err)
	}
}
