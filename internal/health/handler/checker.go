// Package handler reports liveness and readiness over HTTP and the standard gRPC
// health service. Readiness requires a database ping and a working policy engine.
package handler

import (
	"context"
	"fmt"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Pinger checks the database connection (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine can evaluate (e.g. *engine.OPAEvaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server runs readiness checks. A nil pinger or policy checker is skipped.
type Server struct {
	pinger  Pinger
	policy  PolicyChecker
	timeout time.Duration
}

// NewServer returns a health Server.
func NewServer(pinger Pinger, policy PolicyChecker) *Server {
	return &Server{pinger: pinger, policy: policy, timeout: defaultCheckTimeout}
}

// Check returns nil when every dependency is healthy, else the first failure.
func (s *Server) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy engine: %w", err)
		}
	}
	return nil
}
