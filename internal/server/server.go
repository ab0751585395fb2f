package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/haimn/showerparty/internal/api"
	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/dualwrite"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/game"
	"github.com/haimn/showerparty/internal/realtime"
	"github.com/haimn/showerparty/internal/roast"
	"github.com/haimn/showerparty/internal/sheets"
	"github.com/haimn/showerparty/internal/store"
	"github.com/haimn/showerparty/internal/submission"
	"github.com/haimn/showerparty/internal/telemetry"
	"github.com/haimn/showerparty/internal/vote"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Tally struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Party struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Sheets struct {
		WebhookURL string
		Timeout    time.Duration
	}

	Roast struct {
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	Realtime struct {
		BaseDelay   time.Duration
		MaxAttempts int
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			tally  redis.UniversalClient
			pubsub redis.UniversalClient
		}

		postgres struct {
			party *pgxpool.Pool
		}

		sheets *sheets.Client
	}

	service struct {
		submission *submission.Service
		vote       *vote.Service
		game       *game.Service
	}

	http *http.Server
}

// validate checks that the required credentials are present. The error is
// deliberately generic: which credential is missing never leaves the process.
func (c Config) validate() error {
	switch {
	case c.Postgres.Party.Addr == "",
		c.Postgres.Party.User == "",
		c.Postgres.Party.Name == "",
		len(c.Redis.Tally.Addrs) == 0,
		len(c.Redis.Pubsub.Addrs) == 0:
		return errors.New("server configuration error")
	}

	return nil
}

func Init(c Config) (*Server, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := s.initPostgres(); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	s.infra.sheets = sheets.New(sheets.Config{
		WebhookURL: s.c.Sheets.WebhookURL,
		Timeout:    s.c.Sheets.Timeout,
	})
	if !s.infra.sheets.Enabled() {
		slog.Info("server: no spreadsheet webhook configured, mirroring disabled")
	}

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.tally, err = connect(s.c.Redis.Tally.Addrs, s.c.Redis.Tally.Pass)
	if err != nil {
		return fmt.Errorf("tally: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg := s.c.Postgres.Party

	cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pg.User, pg.Pass, pg.Addr, pg.Name))
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		return err
	}

	s.infra.postgres.party = db
	return nil
}

func (s *Server) initService() {
	st := store.New(store.Config{
		DB: s.infra.postgres.party,
	})

	writer := dualwrite.New(dualwrite.Config{
		Primary:   st,
		Secondary: s.infra.sheets,
	})

	s.service.submission = submission.NewService(submission.Config{
		Writer:          writer,
		Counter:         st,
		EventBus:        s.eb,
		OnMirrorFailure: telemetry.MirrorFailures.Inc,
	})

	s.service.vote = vote.NewService(vote.Config{
		Ballots:  st,
		Redis:    s.infra.redis.tally,
		Prefix:   s.c.Redis.Tally.Prefix,
		EventBus: s.eb,
	})

	s.service.game = game.NewService(game.Config{
		Store: st,
		Roast: roast.NewGenerator(roast.Config{
			BaseURL: s.c.Roast.BaseURL,
			APIKey:  s.c.Roast.APIKey,
			Model:   s.c.Roast.Model,
			Timeout: s.c.Roast.Timeout,
		}),
		EventBus:   s.eb,
		OnFallback: telemetry.RoastFallbacks.Inc,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Router:      e,
		EventBus:    s.eb,
		Submissions: s.service.submission,
		Votes:       s.service.vote,
		Games:       s.service.game,
		Publisher: realtime.NewPublisher(realtime.PublisherConfig{
			Redis:  s.infra.redis.pubsub,
			Prefix: s.c.Redis.Pubsub.Prefix,
		}),
		Streams: streams{realtime.NewManager(realtime.ManagerConfig{
			Redis:       s.infra.redis.pubsub,
			Prefix:      s.c.Redis.Pubsub.Prefix,
			BaseDelay:   s.c.Realtime.BaseDelay,
			MaxAttempts: s.c.Realtime.MaxAttempts,
		})},
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// streams narrows *realtime.Manager to what the API needs.
type streams struct {
	m *realtime.Manager
}

func (s streams) Subscribe(ctx context.Context, channel string, fn func(realtime.Notification)) api.Subscription {
	return s.m.Subscribe(ctx, channel, fn)
}

func (s streams) ActivityChannelName(activity domain.ActivityType) string {
	return s.m.ActivityChannelName(activity)
}

func (s streams) GameChannelName(sessionCode string) string {
	return s.m.GameChannelName(sessionCode)
}

func (s *Server) Start() {
	ctx := context.TODO()

	slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()
	s.infra.redis.tally.Close()
	s.infra.redis.pubsub.Close()
	s.infra.postgres.party.Close()

	slog.InfoContext(ctx, "server: shutdown completed")
}
