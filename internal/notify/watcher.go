// Package notify watches the pending leave count and pushes changes to clients.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"schoolleave/internal/metrics"
	"schoolleave/internal/model"
	"schoolleave/internal/service"
)

// Counter reports how many leave forms await a decision.
type Counter interface {
	PendingCount(ctx context.Context) (int, error)
}

// PendingChange is the payload of both pending topics.
type PendingChange struct {
	Sequence uint64 `json:"sequence"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
}

// Watcher polls on a fixed interval. Polls may overlap; a result is applied
// only if no newer poll has been issued since it started.
type Watcher struct {
	counter   Counter
	publisher service.Publisher
	metrics   metrics.Recorder
	interval  time.Duration
	log       *slog.Logger

	issued atomic.Uint64

	mu      sync.Mutex
	applied uint64
	last    int
	primed  bool

	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewWatcher(counter Counter, publisher service.Publisher, rec metrics.Recorder, interval time.Duration, log *slog.Logger) *Watcher {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{counter: counter, publisher: publisher, metrics: rec, interval: interval, log: log}
}

// Start schedules polling until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", w.interval), func() {
		w.Poll(ctx)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to schedule pending watcher: %w", err)
	}
	w.cron = c
	w.cancel = cancel
	c.Start()
	w.log.Info("pending watcher started", "interval", w.interval.String())
	return nil
}

// Stop cancels in-flight polls and waits for running jobs to return.
func (w *Watcher) Stop() {
	if w.cron == nil {
		return
	}
	w.cancel()
	<-w.cron.Stop().Done()
}

// Poll issues the next sequence number, counts, and applies the result if it is
// still the newest. It reports whether the result was applied.
func (w *Watcher) Poll(ctx context.Context) bool {
	seq := w.issued.Add(1)

	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	n, err := w.counter.PendingCount(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("pending count poll failed", "sequence", seq, "error", err)
		}
		return false
	}
	return w.apply(seq, n)
}

func (w *Watcher) apply(seq uint64, n int) bool {
	w.mu.Lock()
	if seq != w.issued.Load() || seq <= w.applied {
		w.mu.Unlock()
		w.metrics.RecordPollDiscarded()
		w.log.Debug("discarded stale pending count", "sequence", seq)
		return false
	}
	w.applied = seq
	prev, primed := w.last, w.primed
	w.last, w.primed = n, true
	w.mu.Unlock()

	w.metrics.SetPendingForms(n)
	if primed && prev == n {
		return true
	}

	change := PendingChange{Sequence: seq, Previous: prev, Current: n}
	w.publisher.Publish(service.TopicLeavePendingCount, change, canDecide)
	if primed && prev > 0 && n < prev {
		w.publisher.Publish(service.TopicLeaveResolved, change, canDecide)
	}
	return true
}

// Last returns the most recently applied count.
func (w *Watcher) Last() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.primed
}

func canDecide(id model.Identity) bool {
	return id.Role == model.RoleTeacher || id.Role == model.RoleAdmin
}
