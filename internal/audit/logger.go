package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/audit/domain"
	auditrepo "github.com/Piyush-Singh-Chauhan/team-board/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, teamID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	logger      log.FieldLogger
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, logger log.FieldLogger) *Logger {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Logger{
		repo:        repo,
		ipExtractor: ipExtractor,
		logger:      logger.WithField("component", "audit"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LogEvent writes one audit log entry. Entries without a team are dropped.
func (l *Logger) LogEvent(ctx context.Context, teamID, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil || teamID == "" {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.WithFields(log.Fields{
			"team_id":  teamID,
			"action":   action,
			"resource": resource,
		}).WithError(err).Warn("audit: failed to log event")
	}
}
