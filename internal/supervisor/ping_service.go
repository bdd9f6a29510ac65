package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/smarttrip/tripcast/internal/logging"
)

// Pinger is implemented by *history.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingService periodically checks a store and fails after maxFailures
// consecutive errors so the supervisor records and backs off the outage.
type PingService struct {
	target      Pinger
	interval    time.Duration
	maxFailures int
	name        string
}

// NewPingService checks target every interval.
func NewPingService(name string, target Pinger, interval time.Duration, maxFailures int) *PingService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if maxFailures < 1 {
		maxFailures = 3
	}
	return &PingService{
		target:      target,
		interval:    interval,
		maxFailures: maxFailures,
		name:        name,
	}
}

// Serve implements suture.Service.
func (p *PingService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, p.interval)
			err := p.target.Ping(pingCtx)
			cancel()

			if err == nil {
				failures = 0
				continue
			}
			failures++
			logging.Warn().Err(err).Str("service", p.name).Int("failures", failures).Msg("Health check failed")
			if failures >= p.maxFailures {
				return fmt.Errorf("%s: %d consecutive health check failures: %w", p.name, failures, err)
			}
		}
	}
}

// String names the service in supervisor logs.
func (p *PingService) String() string {
	return p.name
}
