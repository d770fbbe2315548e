package stream

import (
	"context"
	"errors"
	"time"

	"arbpanel/internal/config"
	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"

	"github.com/sirupsen/logrus"
)

type LogFetcher interface {
	Logs(ctx context.Context, id models.Identity, lines int) (string, error)
}

// LogTail polls the server for the last lines of a bot's log.
type LogTail struct {
	api      LogFetcher
	interval time.Duration
	lines    int
	log      *logger.Logger
}

func NewLogTail(api LogFetcher, cfg config.StreamConfig, log *logger.Logger) *LogTail {
	return &LogTail{
		api:      api,
		interval: cfg.LogInterval,
		lines:    cfg.LogLines,
		log:      log,
	}
}

var _ Source = (*LogTail)(nil)

// Subscribe fetches once right away and then on every interval.
func (l *LogTail) Subscribe(ctx context.Context, target models.Identity) (Subscription, error) {
	if target.IsZero() {
		return nil, ErrNoTarget
	}
	f, ctx := newFeed(ctx, target, Snapshot{Status: StatusConnecting, Payload: PlaceholderLoading})
	sub := &logSub{feed: f, tail: l}
	go sub.run(ctx)
	return sub, nil
}

type logSub struct {
	*feed
	tail *LogTail
}

func (s *logSub) run(ctx context.Context) {
	defer s.finish()

	ticker := time.NewTicker(s.tail.interval)
	defer ticker.Stop()

	for {
		if !s.fetch(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// fetch reports whether polling should continue.
func (s *logSub) fetch(ctx context.Context) bool {
	text, err := s.tail.api.Logs(ctx, s.target, s.tail.lines)
	if ctx.Err() != nil {
		return false
	}

	var statusErr *panel.StatusError
	switch {
	case err == nil:
		s.publish(StatusOpen, text)
	case errors.Is(err, panel.ErrUnauthorized) || errors.Is(err, panel.ErrNotAuthenticated):
		s.logEntry().WithError(err).Warn("Log tail rejected.")
		return false
	case errors.As(err, &statusErr) && text != "":
		s.publish(StatusErroring, text)
	default:
		s.logEntry().WithError(err).Debug("Log fetch failed.")
		s.publish(StatusErroring, PlaceholderLogError)
	}
	return true
}

func (s *logSub) logEntry() *logrus.Entry {
	return s.tail.log.WithPair("logtail", s.target.String())
}
