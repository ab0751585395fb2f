// Package vote handles baby-name voting: each guest picks up to three
// favorite names. Ballots are appended to Postgres, the running per-name
// tally lives in a Redis sorted set so the leaderboard read never touches
// the primary store.
package vote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/errors"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/sanitize"
)

// MaxSelectedNames caps one ballot. The source material disagreed with
// itself (3 vs 4); 3 is the documented decision.
const MaxSelectedNames = 3

type Ballots interface {
	InsertNameVote(ctx context.Context, v *domain.NameVote) error
}

type Config struct {
	Ballots  Ballots
	Redis    redis.UniversalClient
	Prefix   string
	EventBus *event.Bus
}

type Service struct {
	ballots Ballots
	redis   redis.UniversalClient
	prefix  string
	eb      *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		ballots: c.Ballots,
		redis:   c.Redis,
		prefix:  c.Prefix,
		eb:      c.EventBus,
	}
}

type CastRequest struct {
	VoterName     string
	SelectedNames []string
}

type CastResponse struct {
	Vote domain.NameVote
}

// Cast validates and records one ballot, then bumps the tally of every
// selected name.
func (s *Service) Cast(ctx context.Context, req CastRequest) (*CastResponse, error) {
	voter := sanitize.Name(req.VoterName)
	if voter == "" {
		return nil, errors.InvalidArgumentf("name is required")
	}

	if len(req.SelectedNames) == 0 {
		return nil, errors.InvalidArgumentf("select at least one name")
	}
	if len(req.SelectedNames) > MaxSelectedNames {
		return nil, errors.InvalidArgumentf("Maximum %d votes allowed", MaxSelectedNames)
	}

	selected := make([]string, 0, len(req.SelectedNames))
	for _, raw := range req.SelectedNames {
		name := sanitize.Name(raw)
		if name == "" {
			return nil, errors.InvalidArgumentf("invalid name on ballot: %q", raw)
		}
		selected = append(selected, name)
	}

	v := &domain.NameVote{
		VoterName:     voter,
		SelectedNames: selected,
	}
	if err := s.ballots.InsertNameVote(ctx, v); err != nil {
		return nil, err
	}

	// Tally updates are best-effort: a Redis hiccup must not undo an
	// accepted ballot.
	for _, name := range selected {
		if err := s.redis.ZIncrBy(ctx, s.tallyKey(), 1, name).Err(); err != nil {
			slog.ErrorContext(ctx, "vote: tally update failed",
				"name", name,
				"error", err,
			)
		}
	}

	s.eb.Publish(ctx, domain.EventNameVoteCast{Vote: *v})

	return &CastResponse{Vote: *v}, nil
}

// Leaderboard returns every voted name with its count, most voted first.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.NameStanding, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.tallyKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read name tally: %w", err)
	}

	standings := make([]domain.NameStanding, 0, len(res))
	for _, z := range res {
		standings = append(standings, domain.NameStanding{
			Name:  z.Member.(string),
			Votes: int64(z.Score),
		})
	}

	return standings, nil
}

func (s *Service) tallyKey() string {
	return fmt.Sprintf("%s:names:tally", s.prefix)
}
