// migrate runs DB migrations from embedded SQL; run with go run ./cmd/migrate -direction up.
package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/config"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db/migrate"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

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

	// Run treats "already at target version" as success.
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.WithError(err).WithField("direction", *direction).Fatal("migrate")
	}
	version, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("migrate: read version")
	}
	logger.WithFields(log.Fields{"direction": *direction, "version": version, "dirty": dirty}).Info("migrations applied")
}
