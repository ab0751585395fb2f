package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haimn/showerparty/internal/domain"
)

// State of one subscription.
type State string

const (
	StateDisconnected State = "disconnected"
	StateSubscribing  State = "subscribing"
	StateSubscribed   State = "subscribed"
	StateReconnecting State = "reconnecting"
)

const (
	defaultBaseDelay   = time.Second
	defaultMaxAttempts = 5
)

// Stream is one live pub/sub channel.
type Stream interface {
	Receive(ctx context.Context) (string, error)
	Close() error
}

// DialFunc opens a Stream on a channel. The default dials Redis.
type DialFunc func(ctx context.Context, channel string) (Stream, error)

type ManagerConfig struct {
	Redis redis.UniversalClient
	// Prefix namespaces the pub/sub channels.
	Prefix string
	// BaseDelay is the first reconnect delay; the Nth retry waits
	// BaseDelay × 2^(N-1).
	BaseDelay time.Duration
	// MaxAttempts caps consecutive reconnects. Once exceeded the
	// subscription stays disconnected until the client re-subscribes.
	MaxAttempts int

	dial  DialFunc
	sleep func(ctx context.Context, d time.Duration) error
}

// Manager opens realtime subscriptions, each owning its own reconnect
// counter and backoff schedule.
type Manager struct {
	prefix      string
	baseDelay   time.Duration
	maxAttempts int
	dial        DialFunc
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewManager(c ManagerConfig) *Manager {
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.dial == nil {
		c.dial = redisDialer(c.Redis)
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}

	return &Manager{
		prefix:      c.Prefix,
		baseDelay:   c.BaseDelay,
		maxAttempts: c.MaxAttempts,
		dial:        c.dial,
		sleep:       c.sleep,
	}
}

// Subscription is one live channel with its own backoff counter.
type Subscription struct {
	channel string
	state   atomic.Value
	cancel  context.CancelFunc
	done    chan struct{}
}

// Subscribe opens a subscription on a raw channel name and delivers every
// notification to fn. The callback runs on the subscription's goroutine.
func (m *Manager) Subscribe(ctx context.Context, channel string, fn func(Notification)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)

	s := &Subscription{
		channel: channel,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.state.Store(StateDisconnected)

	go m.run(ctx, s, fn)

	return s
}

func (s *Subscription) State() State {
	return s.state.Load().(State)
}

// Close tears the subscription down and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed when the subscription has stopped, either by Close or by
// exhausting its reconnect attempts.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (m *Manager) run(ctx context.Context, s *Subscription, fn func(Notification)) {
	defer close(s.done)
	defer s.state.Store(StateDisconnected)

	attempt := 0
	for {
		s.state.Store(StateSubscribing)

		st, err := m.dial(ctx, s.channel)
		if err == nil {
			s.state.Store(StateSubscribed)
			attempt = 0
			err = m.receiveLoop(ctx, st, fn)
			_ = st.Close()
		}

		if ctx.Err() != nil {
			return
		}

		attempt++
		if attempt > m.maxAttempts {
			slog.ErrorContext(ctx, "realtime: reconnect attempts exhausted",
				"channel", s.channel,
				"attempts", m.maxAttempts,
				"error", err,
			)
			return
		}

		s.state.Store(StateReconnecting)
		delay := m.baseDelay << (attempt - 1)
		slog.WarnContext(ctx, "realtime: channel error, reconnecting",
			"channel", s.channel,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		if err := m.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func (m *Manager) receiveLoop(ctx context.Context, st Stream, fn func(Notification)) error {
	for {
		payload, err := st.Receive(ctx)
		if err != nil {
			return err
		}

		var n Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			slog.ErrorContext(ctx, "realtime: drop malformed notification", "error", err)
			continue
		}

		fn(n)
	}
}

func redisDialer(r redis.UniversalClient) DialFunc {
	return func(ctx context.Context, channel string) (Stream, error) {
		ps := r.Subscribe(ctx, channel)
		// Wait for the subscription confirmation so dial errors surface here.
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, err
		}
		return redisStream{ps: ps}, nil
	}
}

type redisStream struct {
	ps *redis.PubSub
}

func (s redisStream) Receive(ctx context.Context) (string, error) {
	msg, err := s.ps.ReceiveMessage(ctx)
	if err != nil {
		return "", err
	}
	return msg.Payload, nil
}

func (s redisStream) Close() error {
	return s.ps.Close()
}

// ActivityChannelName resolves the channel of one activity under this
// manager's prefix.
func (m *Manager) ActivityChannelName(activity domain.ActivityType) string {
	return ActivityChannel(m.prefix, activity)
}

// GameChannelName resolves the channel of one game session under this
// manager's prefix.
func (m *Manager) GameChannelName(sessionCode string) string {
	return GameChannel(m.prefix, sessionCode)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
