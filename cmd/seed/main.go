// seed inserts development sample data for local testing. Run with go run ./cmd/seed.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
// With JWT_PRIVATE_KEY set it also prints access tokens for both users.
package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	boardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/board/repository"
	boardservice "github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	carddomain "github.com/Piyush-Singh-Chauhan/team-board/internal/card/domain"
	cardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/card/repository"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/config"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	inviterepo "github.com/Piyush-Singh-Chauhan/team-board/internal/invite/repository"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/logging"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/security"
	teamdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
	teamrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/team/repository"
	teamservice "github.com/Piyush-Singh-Chauhan/team-board/internal/team/service"
	userdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
	userrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/user/repository"
)

const (
	devUserID   = "dev-user-001"
	devUser2ID  = "dev-user-002"
	devEmail    = "dev@example.com"
	memberEmail = "member@example.com"
)

type seedCard struct {
	title    string
	column   carddomain.ColumnID
	priority carddomain.Priority
	assignee string
}

var sampleCards = []seedCard{
	{"Write onboarding guide", carddomain.ColumnTodo, carddomain.PriorityMedium, devUser2ID},
	{"Set up CI pipeline", carddomain.ColumnTodo, carddomain.PriorityHigh, devUserID},
	{"Design board view", carddomain.ColumnInProgress, carddomain.PriorityHigh, devUserID},
	{"Invite flow", carddomain.ColumnInProgress, carddomain.PriorityMedium, devUser2ID},
	{"Project kickoff", carddomain.ColumnDone, carddomain.PriorityLow, ""},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db")
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	tx := db.NewTxRunner(conn)
	boardSvc := boardservice.NewService(boardrepo.NewPostgresRepository(conn), cardrepo.NewPostgresRepository(conn), tx, nil, logger, cfg.MoveMaxRetries)
	teamSvc := teamservice.NewService(teamrepo.NewPostgresRepository(conn), users, boardSvc, inviterepo.NewPostgresRepository(conn), tx, nil, logger)

	existing, err := users.GetByEmail(ctx, devEmail)
	if err != nil {
		logger.WithError(err).Fatal("seed check")
	}
	if existing != nil {
		logger.Infof("Seed already applied (%s exists). Skipping.", devEmail)
		printTokens(cfg, logger)
		return
	}

	now := time.Now().UTC()
	for _, u := range []*userdomain.User{
		{ID: devUserID, Name: "Dev User", Email: devEmail, CreatedAt: now},
		{ID: devUser2ID, Name: "Member User", Email: memberEmail, CreatedAt: now},
	} {
		if err := users.Create(ctx, u); err != nil {
			logger.WithError(err).WithField("email", u.Email).Fatal("create user")
		}
	}

	team, err := teamSvc.CreateTeam(ctx, "Acme Dev", "Sample team for local development", devUserID)
	if err != nil {
		logger.WithError(err).Fatal("create team")
	}
	if _, err := teamSvc.AddMemberByEmail(ctx, team.ID, memberEmail, teamdomain.RoleMember, devUserID); err != nil {
		logger.WithError(err).Fatal("add member")
	}

	board, err := boardSvc.CreateBoard(ctx, team.ID, "Launch", "Everything needed for the first release", devUserID)
	if err != nil {
		logger.WithError(err).Fatal("create board")
	}
	due := now.AddDate(0, 0, 14)
	for _, sc := range sampleCards {
		in := boardservice.CreateCardInput{
			BoardID:    board.ID,
			Title:      sc.title,
			ColumnID:   sc.column,
			Priority:   sc.priority,
			AssigneeID: sc.assignee,
			CreatedBy:  devUserID,
		}
		if sc.column != carddomain.ColumnDone {
			in.DueDate = &due
		}
		if _, err := boardSvc.CreateCard(ctx, in); err != nil {
			logger.WithError(err).WithField("title", sc.title).Fatal("create card")
		}
	}

	logger.WithFields(log.Fields{"team_id": team.ID, "board_id": board.ID}).Info("Seed completed successfully.")
	printTokens(cfg, logger)
}

// printTokens prints an access token per dev user when a signing key is configured.
func printTokens(cfg *config.Config, logger log.FieldLogger) {
	if cfg.JWTPrivateKey == "" {
		logger.Info("JWT_PRIVATE_KEY not set; no dev tokens printed")
		return
	}
	signer, pub, err := security.LoadKeys(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		logger.WithError(err).Fatal("jwt keys")
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	for _, u := range []struct{ id, email string }{{devUserID, devEmail}, {devUser2ID, memberEmail}} {
		token, _, expiresAt, err := tokens.IssueAccess(u.id, u.email)
		if err != nil {
			logger.WithError(err).Fatal("issue token")
		}
		fmt.Printf("%s (expires %s):\n%s\n", u.email, expiresAt.Format(time.RFC3339), token)
	}
}
