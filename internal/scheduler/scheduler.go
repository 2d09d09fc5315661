// Package scheduler runs periodic housekeeping for the web sessions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
)

// Pruner is satisfied by *db.DB.
type Pruner interface {
	PruneIdle(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	pruner Pruner
	ttl    time.Duration

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

func New(pruner Pruner, ttl time.Duration) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		pruner: pruner,
		ttl:    ttl,
	}
}

// Start registers the prune job on the given cron expression and starts
// the cron runner.
func (s *Scheduler) Start(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	id, err := s.cron.AddFunc(expr, func() { s.PruneOnce(context.Background()) })
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", expr, err)
	}
	s.entryID = id
	s.started = true
	s.cron.Start()

	slog.Info("scheduler started", "schedule", expr, "session_ttl", s.ttl, "next", humanize.Time(s.cron.Entry(id).Schedule.Next(time.Now())))
	return nil
}

// Stop halts the cron runner and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// PruneOnce removes sessions idle longer than the TTL.
func (s *Scheduler) PruneOnce(ctx context.Context) (int64, error) {
	n, err := s.pruner.PruneIdle(ctx, s.ttl)
	if err != nil {
		slog.Error("pruning sessions", "err", err)
		return 0, err
	}
	if n > 0 {
		slog.Info("pruned idle sessions", "count", humanize.Comma(n), "idle_since", humanize.Time(time.Now().Add(-s.ttl)))
	}
	return n, nil
}
