package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"arbpanel/internal/config"
	"arbpanel/internal/logger"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/cenkalti/backoff.v1"
)

const maxFrameSize = 1 << 20

// TokenSource supplies the encoded credential for the stream URL.
type TokenSource interface {
	Token() (string, bool)
	Clear(ctx context.Context) error
}

// Ticker subscribes to the server's live text frames for a bot.
type Ticker struct {
	baseURL      string
	session      TokenSource
	httpClient   *http.Client
	log          *logger.Logger
	reconnectMin time.Duration
	reconnectMax time.Duration
}

func NewTicker(baseURL string, session TokenSource, cfg config.StreamConfig, log *logger.Logger) *Ticker {
	return &Ticker{
		baseURL:      strings.TrimRight(baseURL, "/"),
		session:      session,
		httpClient:   &http.Client{},
		log:          log,
		reconnectMin: cfg.ReconnectMin,
		reconnectMax: cfg.ReconnectMax,
	}
}

var _ Source = (*Ticker)(nil)

func (t *Ticker) Subscribe(ctx context.Context, target models.Identity) (Subscription, error) {
	if target.IsZero() {
		return nil, ErrNoTarget
	}
	token, ok := t.session.Token()
	if !ok {
		return nil, panel.ErrNotAuthenticated
	}

	path := panel.IdentityPath(panel.PathLiveStream, target)
	f, ctx := newFeed(ctx, target, Snapshot{Status: StatusConnecting, Payload: PlaceholderWaiting})
	sub := &tickerSub{
		feed:      f,
		ticker:    t,
		path:      path,
		endpoint:  t.baseURL + path + "?" + url.Values{"auth": {token}}.Encode(),
		requestID: uuid.NewString(),
		policy:    newReconnectPolicy(t.reconnectMin, t.reconnectMax),
	}
	go sub.run(ctx)
	return sub, nil
}

type tickerSub struct {
	*feed
	ticker    *Ticker
	path      string
	endpoint  string
	requestID string
	policy    *reconnectPolicy
	rejected  atomic.Bool
}

func (s *tickerSub) run(ctx context.Context) {
	defer s.finish()
	s.logEntry().Debug("Ticker started.")

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	client := s.newClient(cancel)

	for {
		err := client.SubscribeRawWithContext(streamCtx, s.handle)
		if s.rejected.Load() {
			s.logEntry().WithError(err).Warn("Ticker rejected, clearing session.")
			if clearErr := s.ticker.session.Clear(ctx); clearErr != nil {
				s.logEntry().WithError(clearErr).Error("Failed to clear session.")
			}
			s.publish(StatusClosed, PlaceholderLost)
			return
		}
		if streamCtx.Err() != nil {
			s.logEntry().Debug("Ticker stopped.")
			return
		}

		// The client retries failed connections itself; a stream the server ended cleanly lands here.
		if err == nil {
			err = io.EOF
		}
		wait := s.policy.NextBackOff()
		s.lost(err, wait)
		if !sleepCtx(streamCtx, wait) {
			return
		}
	}
}

func (s *tickerSub) newClient(cancel context.CancelFunc) *sse.Client {
	client := sse.NewClient(s.endpoint, sse.ClientMaxBufferSize(maxFrameSize))
	client.Connection = s.ticker.httpClient
	client.Headers["X-Request-ID"] = s.requestID
	client.ReconnectStrategy = s.policy
	client.ReconnectNotify = s.lost
	client.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		return s.accept(resp, cancel)
	}
	return client
}

// accept checks the stream response. A 401, or a session cleared meanwhile, stops the subscription for good.
func (s *tickerSub) accept(resp *http.Response, cancel context.CancelFunc) error {
	if resp.StatusCode == http.StatusOK {
		if _, ok := s.ticker.session.Token(); ok {
			s.policy.Reset()
			s.logEntry().Info("Ticker connected.")
			s.setStatus(StatusOpen)
			return nil
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		s.rejected.Store(true)
		cancel()
		return fmt.Errorf("GET %s: %w", s.path, panel.ErrNotAuthenticated)
	case http.StatusUnauthorized:
		s.rejected.Store(true)
		cancel()
		return fmt.Errorf("GET %s: %w", s.path, panel.ErrUnauthorized)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &panel.StatusError{Method: http.MethodGet, Path: s.path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// handle shows unnamed message events only. A retry hint raises the reconnect floor.
func (s *tickerSub) handle(msg *sse.Event) {
	if len(msg.Retry) > 0 {
		if ms, err := strconv.Atoi(string(msg.Retry)); err == nil && ms >= 0 {
			s.policy.floor = time.Duration(ms) * time.Millisecond
		}
	}
	if name := string(msg.Event); name != "" && name != "message" {
		s.logEntry().WithField("event", name).Debug("Ignoring named event.")
		return
	}
	if len(msg.Data) == 0 {
		return
	}
	s.publish(StatusOpen, framePayload(string(msg.Data)))
}

func (s *tickerSub) lost(err error, wait time.Duration) {
	if s.rejected.Load() {
		return
	}
	s.logEntry().WithError(err).WithField("retry_in", wait).Warn("Ticker connection lost.")
	s.publish(StatusErroring, PlaceholderLost)
}

func (s *tickerSub) logEntry() *logrus.Entry {
	return s.ticker.log.WithPair("ticker", s.target.String())
}

// reconnectPolicy doubles the wait from min up to max. It is only used from the subscription goroutine.
type reconnectPolicy struct {
	min   time.Duration
	max   time.Duration
	next  time.Duration
	floor time.Duration
}

var _ backoff.BackOff = (*reconnectPolicy)(nil)

func newReconnectPolicy(minWait, maxWait time.Duration) *reconnectPolicy {
	p := &reconnectPolicy{min: minWait, max: maxWait}
	p.Reset()
	return p
}

func (p *reconnectPolicy) NextBackOff() time.Duration {
	wait := p.next
	if p.floor > wait {
		wait = p.floor
	}
	p.next = p.nextBackoff(p.next)
	return wait
}

func (p *reconnectPolicy) Reset() {
	p.next = p.min
}

func (p *reconnectPolicy) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > p.max {
		return p.max
	}
	return next
}

// framePayload turns one frame into display text. The server escapes line breaks as a literal backslash-n.
func framePayload(data string) string {
	text := strings.ReplaceAll(data, `\n`, "\n")
	if strings.TrimSpace(text) == "" {
		return PlaceholderEmpty
	}
	return text
}
