package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haimn/showerparty/internal/domain"
)

func TestSubscription_BackoffSchedule(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		delays []time.Duration
	)

	m := NewManager(ManagerConfig{
		Prefix:      "party",
		BaseDelay:   time.Second,
		MaxAttempts: 5,
		dial: func(ctx context.Context, channel string) (Stream, error) {
			return nil, errors.New("channel error")
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			mu.Lock()
			delays = append(delays, d)
			mu.Unlock()
			return nil
		},
	})

	s := m.Subscribe(context.Background(), "party:activity:guestbook", func(Notification) {})

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not give up")
	}

	// Delay before the Nth retry is base × 2^(N-1); after 5 failed attempts
	// no further retry is scheduled.
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	assert.Equal(t, want, delays)
	assert.Equal(t, StateDisconnected, s.State())
}

func TestSubscription_ResetsCounterAfterSuccessfulConnect(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		dials int
	)

	m := NewManager(ManagerConfig{
		Prefix:      "party",
		BaseDelay:   time.Millisecond,
		MaxAttempts: 2,
		dial: func(ctx context.Context, channel string) (Stream, error) {
			mu.Lock()
			dials++
			n := dials
			mu.Unlock()

			if n == 1 {
				// First connect succeeds, then the stream errors out once.
				return stubStream{fail: true}, nil
			}
			return nil, errors.New("channel error")
		},
		sleep: func(ctx context.Context, d time.Duration) error { return nil },
	})

	s := m.Subscribe(context.Background(), "party:activity:pool", func(Notification) {})

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not give up")
	}

	// 1 successful dial + the counter restarting from 1 afterwards:
	// 2 more dials before the cap of 2 attempts is exceeded.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, dials)
}

func TestSubscription_CloseStopsReconnecting(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerConfig{
		Prefix:      "party",
		BaseDelay:   time.Hour,
		MaxAttempts: 5,
		dial: func(ctx context.Context, channel string) (Stream, error) {
			return nil, errors.New("channel error")
		},
	})

	s := m.Subscribe(context.Background(), "party:activity:quiz", func(Notification) {})
	s.Close()

	assert.Equal(t, StateDisconnected, s.State())
}

type stubStream struct {
	fail bool
}

func (s stubStream) Receive(ctx context.Context) (string, error) {
	if s.fail {
		return "", errors.New("stream error")
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func (stubStream) Close() error { return nil }

func TestPublisherToSubscriber(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	m := NewManager(ManagerConfig{
		Redis:  rc,
		Prefix: "party",
	})

	received := make(chan Notification, 1)
	s := m.Subscribe(ctx, m.ActivityChannelName(domain.ActivityGuestbook), func(n Notification) {
		received <- n
	})
	defer s.Close()

	require.Eventually(t, func() bool {
		return s.State() == StateSubscribed
	}, time.Second, 10*time.Millisecond)

	p := NewPublisher(PublisherConfig{Redis: rc, Prefix: "party"})
	err := p.PublishSubmission(ctx, domain.Submission{
		SubmissionID: "sub-1",
		Name:         "Ann",
		Activity:     domain.ActivityGuestbook,
		Data:         map[string]any{"message": "congrats!"},
		CreateTime:   time.Now(),
	})
	require.NoError(t, err)

	select {
	case n := <-received:
		assert.Equal(t, domain.EventNameSubmissionCreated, n.Event)

		var payload SubmissionPayload
		require.NoError(t, json.Unmarshal(n.Data, &payload))
		assert.Equal(t, "sub-1", payload.SubmissionID)
		assert.Equal(t, domain.ActivityGuestbook, payload.ActivityType)
	case <-ctx.Done():
		t.Fatal("notification was not delivered")
	}
}

func TestPublishVote_LandsOnVotingChannel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	m := NewManager(ManagerConfig{
		Redis:  rc,
		Prefix: "party",
	})

	received := make(chan Notification, 1)
	s := m.Subscribe(ctx, m.ActivityChannelName(domain.ActivityVoting), func(n Notification) {
		received <- n
	})
	defer s.Close()

	require.Eventually(t, func() bool {
		return s.State() == StateSubscribed
	}, time.Second, 10*time.Millisecond)

	p := NewPublisher(PublisherConfig{Redis: rc, Prefix: "party"})
	err := p.PublishVote(ctx, domain.NameVote{
		VoteID:        "v-1",
		VoterName:     "Eve",
		SelectedNames: []string{"Noa", "Ari"},
		CreateTime:    time.Now(),
	})
	require.NoError(t, err)

	select {
	case n := <-received:
		assert.Equal(t, domain.EventNameNameVoteCast, n.Event)

		var payload VotePayload
		require.NoError(t, json.Unmarshal(n.Data, &payload))
		assert.Equal(t, "v-1", payload.VoteID)
		assert.Equal(t, []string{"Noa", "Ari"}, payload.SelectedNames)
	case <-ctx.Done():
		t.Fatal("notification was not delivered")
	}
}
