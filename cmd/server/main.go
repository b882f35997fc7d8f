// Server runs the team board HTTP API and the gRPC health listener.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/audit"
	auditrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/audit/repository"
	boardhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/board/handler"
	boardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/board/repository"
	boardservice "github.com/Piyush-Singh-Chauhan/team-board/internal/board/service"
	cardrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/card/repository"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/config"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	healthhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/health/handler"
	invitehandler "github.com/Piyush-Singh-Chauhan/team-board/internal/invite/handler"
	inviterepo "github.com/Piyush-Singh-Chauhan/team-board/internal/invite/repository"
	inviteservice "github.com/Piyush-Singh-Chauhan/team-board/internal/invite/service"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/logging"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/idempotency"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/policy/engine"
	policyhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/policy/handler"
	policyrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/policy/repository"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/security"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/server/interceptors"
	teamhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/team/handler"
	teamrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/team/repository"
	teamservice "github.com/Piyush-Singh-Chauhan/team-board/internal/team/service"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry"
	telemetryotel "github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/otel"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/telemetry/producer"
	userhandler "github.com/Piyush-Singh-Chauhan/team-board/internal/user/handler"
	userrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/user/repository"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "team-board",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("otel")
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db")
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	teams := teamrepo.NewPostgresRepository(conn)
	boards := boardrepo.NewPostgresRepository(conn)
	cards := cardrepo.NewPostgresRepository(conn)
	invites := inviterepo.NewPostgresRepository(conn)
	policies := policyrepo.NewPostgresRepository(conn)
	tx := db.NewTxRunner(conn)

	events := telemetry.Multi{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.ActivityKafkaTopic)
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		events = append(events, kafkaProducer)
		logger.WithField("topic", cfg.ActivityKafkaTopic).Info("publishing activity to kafka")
	}

	access := engine.NewOPAEvaluator(policies, logger)
	boardSvc := boardservice.NewService(boards, cards, tx, events, logger, cfg.MoveMaxRetries)
	teamSvc := teamservice.NewService(teams, users, boardSvc, invites, tx, events, logger)
	inviteSvc := inviteservice.NewService(invites, teams, users, tx, events, logger, cfg.InviteTTL())

	// The API only verifies tokens; an empty JWT_PUBLIC_KEY falls back to the private key's public half.
	_, publicKey, err := security.LoadKeys(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		logger.WithError(err).Fatal("jwt keys")
	}
	tokens := security.NewTokenProvider(nil, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	var deduper idempotency.Deduper
	if cfg.RedisURL != "" {
		client, err := idempotency.NewClient(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("redis")
		}
		defer client.Close()
		rd := idempotency.NewRedisDeduper(client, cfg.IdempotencyTTL())
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rd.Ping(pingCtx); err != nil {
			logger.WithError(err).Warn("redis unreachable; idempotency keys will fail open until it recovers")
		}
		cancel()
		deduper = rd
	}

	checker := healthhandler.NewServer(conn, access)
	e := server.NewHTTPServer(server.HTTPDeps{
		Logger:          logger,
		Tokens:          tokens,
		Deduper:         deduper,
		Audit:           audit.NewLogger(auditrepo.NewPostgresRepository(conn), interceptors.ClientIP, logger),
		Health:          checker,
		RateLimitWindow: cfg.RateLimitWindow(),
		RateLimitMax:    cfg.RateLimitMaxRequests,
		CORSOrigins:     cfg.CORSOrigins(),
		Routes: []server.RouteRegistrar{
			userhandler.NewHandler(users),
			teamhandler.NewHandler(teamSvc, access, auditrepo.NewPostgresRepository(conn)),
			boardhandler.NewHandler(boardSvc, teamSvc, access),
			invitehandler.NewHandler(inviteSvc, teamSvc, access),
			policyhandler.NewHandler(policies, teamSvc, access),
		},
	})

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.WithError(err).Fatal("grpc listen")
		}
		hs := health.NewServer()
		grpcSrv = server.NewGRPCServer(hs)
		go checker.Watch(ctx, hs, healthhandler.DefaultWatchInterval, logger)
		go func() {
			logger.WithField("addr", lis.Addr().String()).Info("grpc health listening")
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.WithError(err).Error("server failed")
	}
	shutdown(logger, e, grpcSrv, providers)
}

func shutdown(logger log.FieldLogger, e *echo.Echo, grpcSrv *grpc.Server, providers *telemetryotel.Providers) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := providers.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("otel shutdown")
	}
}
