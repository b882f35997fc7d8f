// Worker consumes activity events from Kafka, pushes them to Loki and reconciles
// boards after card changes. Set KAFKA_BROKERS plus LOKI_URL and/or DATABASE_URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	boardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/board/repository"
	boardservice "github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	cardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/card/repository"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/config"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/logging"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/consumer"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/loki"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		logger.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" && cfg.DatabaseURL == "" {
		logger.Fatal("worker: set LOKI_URL, DATABASE_URL or both")
	}

	var sink consumer.Sink
	if client := loki.NewClient(cfg.LokiURL, nil); client != nil {
		sink = client
	}

	var reconciler consumer.Reconciler
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("db")
		}
		defer conn.Close()
		// No emitter: reconciles triggered here must not publish back onto the topic.
		reconciler = boardservice.NewService(
			boardrepo.NewPostgresRepository(conn),
			cardrepo.NewPostgresRepository(conn),
			db.NewTxRunner(conn), nil, logger, cfg.MoveMaxRetries)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.ActivityKafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  1 * time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{
		"topic":     cfg.ActivityKafkaTopic,
		"group":     cfg.KafkaGroupID,
		"loki":      cfg.LokiURL,
		"reconcile": reconciler != nil,
	}).Info("worker: consuming")
	consumer.New(reader, reconciler, sink, logger).Run(ctx)
	logger.Info("worker: stopped")
}
