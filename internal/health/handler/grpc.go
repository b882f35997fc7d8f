package handler

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultWatchInterval is how often Watch re-runs the readiness checks.
const DefaultWatchInterval = 10 * time.Second

// Update runs the checks once and sets the overall ("") serving status on hs.
// It returns the status it set.
func (s *Server) Update(ctx context.Context, hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	return status
}

// Watch keeps hs in step with the readiness checks until ctx is done, logging
// transitions. It runs one check before waiting for the first tick.
func (s *Server) Watch(ctx context.Context, hs *health.Server, interval time.Duration, logger log.FieldLogger) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	last := s.Update(ctx, hs)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			if st := s.Update(ctx, hs); st != last {
				logger.WithField("status", st.String()).Warn("health: serving status changed")
				last = st
			}
		}
	}
}
