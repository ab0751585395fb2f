//go:build integration_test

package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/realtime"
)

const (
	baseURL   = "http://localhost:8080"
	redisAddr = "localhost:6379"
	prefix    = "party"
)

// TestParty drives a running server end to end: guests fill in forms
// concurrently, a subscriber watches the guestbook channel, and a full
// mini-game round plays out.
func TestParty(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wg := new(sync.WaitGroup)
	subscribeToActivity(t, wg, domain.ActivityGuestbook)

	guests := []string{"Ann", "Ben", "Cleo"}

	// All guests sign the guestbook concurrently.
	{
		var eg errgroup.Group
		for _, g := range guests {
			g := g
			eg.Go(func() error {
				body := map[string]any{
					"name":         g,
					"relationship": "Friend",
					"message":      fmt.Sprintf("So happy for you both! Love, %s.", g),
				}
				resp, err := post(ctx, "/api/guestbook", body)
				if err != nil {
					return fmt.Errorf("guest %q: %w", g, err)
				}
				t.Logf("Guest %q signed: %v", g, resp["message"])
				return nil
			})
		}
		require.NoError(t, eg.Wait())
	}

	// Everybody votes on names.
	for _, g := range guests {
		_, err := post(ctx, "/api/vote", map[string]any{
			"name":          g,
			"selectedNames": []string{"Noa", "Ari"},
		})
		require.NoError(t, err)
	}

	{
		resp, err := get(ctx, "/api/vote/leaderboard")
		require.NoError(t, err)
		t.Logf("Leaderboard: %v", resp["data"])
	}

	// One full Mom-vs-Dad round.
	{
		resp, err := post(ctx, "/api/game/sessions", map[string]any{
			"momName": "Maya",
			"dadName": "Dan",
		})
		require.NoError(t, err)

		data := resp["data"].(map[string]any)
		code := data["session"].(map[string]any)["code"].(string)
		adminCode := data["adminCode"].(string)
		t.Logf("Session %s created", code)

		for _, g := range guests {
			_, err := post(ctx, "/api/game/sessions/"+code+"/join", map[string]any{"guestName": g})
			require.NoError(t, err)
		}

		_, err = post(ctx, "/api/game/sessions/"+code+"/rounds", map[string]any{
			"adminCode": adminCode,
			"intensity": 0.5,
		})
		require.NoError(t, err)

		for _, g := range guests {
			_, err := post(ctx, "/api/game/sessions/"+code+"/votes", map[string]any{
				"guestName": g,
				"choice":    "mom",
			})
			require.NoError(t, err)
		}

		resp, err = post(ctx, "/api/game/sessions/"+code+"/reveal", map[string]any{
			"adminCode":    adminCode,
			"actualChoice": "dad",
		})
		require.NoError(t, err)
		t.Logf("Reveal: %v", resp["data"])
	}

	{
		resp, err := get(ctx, "/api/stats")
		require.NoError(t, err)
		t.Logf("Stats: %v", resp["data"])
	}

	wg.Wait()
}

func subscribeToActivity(t *testing.T, wg *sync.WaitGroup, activity domain.ActivityType) {
	r := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{redisAddr}})
	t.Cleanup(func() { r.Close() })

	ps := r.Subscribe(context.Background(), realtime.ActivityChannel(prefix, activity))
	t.Cleanup(func() { ps.Close() })

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			m, err := ps.ReceiveMessage(context.Background())
			if err != nil {
				t.Logf("Subscriber stopped: %v", err)
				return
			}
			t.Logf("Realtime update on %q: %s", m.Channel, m.Payload)
		}
	}()
}

func post(ctx context.Context, path string, body map[string]any) (map[string]any, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return do(req)
}

func get(ctx context.Context, path string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	return do(req)
}

func do(req *http.Request) (map[string]any, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return body, fmt.Errorf("%s %s: status %d: %v", req.Method, req.URL.Path, resp.StatusCode, body["error"])
	}

	return body, nil
}
