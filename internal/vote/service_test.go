package vote_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/errors"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/vote"
)

func TestService_Cast(t *testing.T) {
	type inputs struct {
		voter    string
		selected []string
	}

	tests := map[string]struct {
		arrange func() inputs
		wantErr errors.Code
	}{
		"single name is accepted": {
			arrange: func() inputs {
				return inputs{voter: "Bo", selected: []string{"Emma"}}
			},
		},

		"three names are accepted": {
			arrange: func() inputs {
				return inputs{voter: "Bo", selected: []string{"Emma", "Olivia", "Sophia"}}
			},
		},

		"four names exceed the cap": {
			arrange: func() inputs {
				return inputs{voter: "Bo", selected: []string{"Emma", "Olivia", "Sophia", "Ava"}}
			},
			wantErr: errors.CodeInvalidArgument,
		},

		"empty ballot is rejected": {
			arrange: func() inputs {
				return inputs{voter: "Bo", selected: nil}
			},
			wantErr: errors.CodeInvalidArgument,
		},

		"missing voter name is rejected": {
			arrange: func() inputs {
				return inputs{selected: []string{"Emma"}}
			},
			wantErr: errors.CodeInvalidArgument,
		},

		"html in a ballot name is rejected": {
			arrange: func() inputs {
				return inputs{voter: "Bo", selected: []string{"<b>Emma</b>"}}
			},
			wantErr: errors.CodeInvalidArgument,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			ballots := &fakeBallots{}
			s := makeService(t, ballots)

			_, err := s.Cast(context.Background(), vote.CastRequest{
				VoterName:     in.voter,
				SelectedNames: in.selected,
			})

			if tt.wantErr != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errors.Convert(err).Code)
				assert.Empty(t, ballots.votes, "rejected ballots must not be persisted")
				return
			}

			require.NoError(t, err)
			require.Len(t, ballots.votes, 1)
		})
	}
}

func TestService_CapErrorMessage(t *testing.T) {
	t.Parallel()

	s := makeService(t, &fakeBallots{})

	_, err := s.Cast(context.Background(), vote.CastRequest{
		VoterName:     "Bo",
		SelectedNames: []string{"Emma", "Olivia", "Sophia", "Ava"},
	})
	require.Error(t, err)
	assert.Equal(t, "Maximum 3 votes allowed", errors.Convert(err).Message)
}

func TestService_Leaderboard(t *testing.T) {
	t.Parallel()

	s := makeService(t, &fakeBallots{})

	cast := func(voter string, names ...string) {
		_, err := s.Cast(context.Background(), vote.CastRequest{VoterName: voter, SelectedNames: names})
		require.NoError(t, err)
	}

	cast("Ann", "Emma", "Olivia")
	cast("Bo", "Emma")
	cast("Cy", "Emma", "Sophia")

	standings, err := s.Leaderboard(context.Background())
	require.NoError(t, err)

	want := []domain.NameStanding{
		{Name: "Emma", Votes: 3},
		{Name: "Olivia", Votes: 1},
		{Name: "Sophia", Votes: 1},
	}
	require.Len(t, standings, 3)
	assert.Equal(t, want[0], standings[0])
	assert.ElementsMatch(t, want[1:], standings[1:])
}

func makeService(t *testing.T, ballots vote.Ballots) *vote.Service {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return vote.NewService(vote.Config{
		Ballots:  ballots,
		Redis:    rc,
		Prefix:   "party",
		EventBus: event.NewBus(),
	})
}

type fakeBallots struct {
	mu    sync.Mutex
	votes []domain.NameVote
}

func (f *fakeBallots) InsertNameVote(ctx context.Context, v *domain.NameVote) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	v.VoteID = "vote-1"
	f.votes = append(f.votes, *v)
	return nil
}
