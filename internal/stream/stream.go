// Package stream delivers the live ticker and the log tail for the selected bot.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"arbpanel/internal/models"
)

const (
	PlaceholderLoading  = "Loading..."
	PlaceholderWaiting  = "Waiting..."
	PlaceholderLost     = "Connection lost (retrying...)"
	PlaceholderEmpty    = "No data"
	PlaceholderLogError = "Error loading logs."
)

var ErrNoTarget = errors.New("stream: no target selected")

type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusOpen
	StatusErroring
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusErroring:
		return "erroring"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is the latest display payload for one target.
type Snapshot struct {
	Target  models.Identity
	Payload string
	Status  Status
	At      time.Time
}

// Subscription is a live feed for one target. Updates coalesces: a slow reader sees only the newest snapshot.
// The channel is closed once the feed has stopped.
type Subscription interface {
	Target() models.Identity
	Latest() Snapshot
	Updates() <-chan Snapshot
	Close()
}

type Source interface {
	Subscribe(ctx context.Context, target models.Identity) (Subscription, error)
}

// feed is the shared plumbing of both subscription kinds.
type feed struct {
	target  models.Identity
	cancel  context.CancelFunc
	done    chan struct{}
	updates chan Snapshot

	mu     sync.Mutex
	latest Snapshot
	closed bool
}

func newFeed(ctx context.Context, target models.Identity, initial Snapshot) (*feed, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	initial.Target = target
	if initial.At.IsZero() {
		initial.At = time.Now()
	}
	f := &feed{
		target:  target,
		cancel:  cancel,
		done:    make(chan struct{}),
		updates: make(chan Snapshot, 1),
		latest:  initial,
	}
	return f, ctx
}

func (f *feed) Target() models.Identity {
	return f.target
}

func (f *feed) Latest() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *feed) Updates() <-chan Snapshot {
	return f.updates
}

// Close stops the feed and waits for its goroutine to exit.
func (f *feed) Close() {
	f.cancel()
	<-f.done
}

func (f *feed) publish(status Status, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.latest = Snapshot{Target: f.target, Payload: payload, Status: status, At: time.Now()}

	select {
	case f.updates <- f.latest:
		return
	default:
	}
	select {
	case <-f.updates:
	default:
	}
	select {
	case f.updates <- f.latest:
	default:
	}
}

func (f *feed) setStatus(status Status) {
	f.mu.Lock()
	payload := f.latest.Payload
	f.mu.Unlock()
	f.publish(status, payload)
}

// finish marks the feed closed and releases readers. Called once by the feed goroutine.
func (f *feed) finish() {
	f.setStatus(StatusClosed)
	f.mu.Lock()
	f.closed = true
	close(f.updates)
	f.mu.Unlock()
	close(f.done)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
