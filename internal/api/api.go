// Package api exposes the party backend over HTTP: one JSON endpoint per
// activity form, the name-vote leaderboard, the mini-game session actions
// and an SSE feed per activity. It also bridges bus events onto the
// realtime publisher so connected clients see new submissions immediately.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/game"
	"github.com/haimn/showerparty/internal/realtime"
	"github.com/haimn/showerparty/internal/submission"
	"github.com/haimn/showerparty/internal/telemetry"
	"github.com/haimn/showerparty/internal/vote"
)

type Submissions interface {
	Create(ctx context.Context, req submission.CreateRequest) (*submission.CreateResponse, error)
	Stats(ctx context.Context) (map[domain.ActivityType]int64, error)
}

type Votes interface {
	Cast(ctx context.Context, req vote.CastRequest) (*vote.CastResponse, error)
	Leaderboard(ctx context.Context) ([]domain.NameStanding, error)
}

type Games interface {
	CreateSession(ctx context.Context, req game.CreateSessionRequest) (*domain.GameSession, error)
	Join(ctx context.Context, req game.JoinRequest) (*game.JoinResponse, error)
	StartRound(ctx context.Context, req game.StartRoundRequest) (*domain.GameScenario, error)
	SubmitVote(ctx context.Context, req game.VoteRequest) (*domain.GameVote, error)
	Reveal(ctx context.Context, req game.RevealRequest) (*domain.GameResult, error)
	Complete(ctx context.Context, req game.CompleteRequest) error
	GetState(ctx context.Context, sessionCode string) (*game.StateResponse, error)
}

type Publisher interface {
	PublishSubmission(ctx context.Context, sub domain.Submission) error
	PublishVote(ctx context.Context, v domain.NameVote) error
	PublishMilestone(ctx context.Context, m domain.Milestone) error
	PublishRoundRevealed(ctx context.Context, sessionCode string, r domain.GameResult) error
}

// Subscription is the live end of one stream: Done closes when the feed is
// over (the client should reconnect or give up) and Close releases it.
type Subscription interface {
	Done() <-chan struct{}
	Close()
}

type Streams interface {
	Subscribe(ctx context.Context, channel string, fn func(realtime.Notification)) Subscription
	ActivityChannelName(activity domain.ActivityType) string
	GameChannelName(sessionCode string) string
}

type Config struct {
	Router      *gin.Engine
	EventBus    *event.Bus
	Submissions Submissions
	Votes       Votes
	Games       Games
	Publisher   Publisher
	Streams     Streams
}

type API struct {
	submissions Submissions
	votes       Votes
	games       Games
	pub         Publisher
	streams     Streams
}

func New(c Config) *API {
	a := &API{
		submissions: c.Submissions,
		votes:       c.Votes,
		games:       c.Games,
		pub:         c.Publisher,
		streams:     c.Streams,
	}

	registerValidations()
	a.registerRoutes(c.Router)
	a.registerEventHandlers(c.EventBus)

	return a
}

func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("parentchoice", func(fl validator.FieldLevel) bool {
		return domain.ParentChoice(fl.Field().String()).Valid()
	})
}

func (a *API) registerRoutes(e *gin.Engine) {
	e.HandleMethodNotAllowed = true
	e.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, response{Result: "error", Error: "method not allowed"})
	})
	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response{Result: "error", Error: "not found"})
	})

	e.Use(corsMiddleware())

	r := e.Group("/api")
	r.GET("", a.health)

	r.POST("/guestbook", a.submit(domain.ActivityGuestbook))
	r.POST("/pool", a.submit(domain.ActivityPool))
	r.POST("/quiz", a.submit(domain.ActivityQuiz))
	r.POST("/advice", a.submit(domain.ActivityAdvice))

	r.POST("/vote", a.castVote)
	r.GET("/vote/leaderboard", a.voteLeaderboard)

	r.GET("/stats", a.stats)
	r.GET("/stream/:activity", a.stream)

	g := r.Group("/game/sessions")
	g.POST("", a.createSession)
	g.GET("/:code", a.sessionState)
	g.POST("/:code/join", a.joinSession)
	g.POST("/:code/rounds", a.startRound)
	g.POST("/:code/votes", a.gameVote)
	g.POST("/:code/reveal", a.reveal)
	g.POST("/:code/complete", a.complete)
}

// registerEventHandlers bridges bus events onto the realtime channels.
func (a *API) registerEventHandlers(eb *event.Bus) {
	eb.Subscribe(domain.EventNameSubmissionCreated, func(ctx context.Context, e event.Event) error {
		sub := e.(domain.EventSubmissionCreated).Submission
		telemetry.Submissions.WithLabelValues(string(sub.Activity)).Inc()
		return a.pub.PublishSubmission(ctx, sub)
	})

	eb.Subscribe(domain.EventNameNameVoteCast, func(ctx context.Context, e event.Event) error {
		return a.pub.PublishVote(ctx, e.(domain.EventNameVoteCast).Vote)
	})

	eb.Subscribe(domain.EventNameMilestoneReached, func(ctx context.Context, e event.Event) error {
		return a.pub.PublishMilestone(ctx, e.(domain.EventMilestoneReached).Milestone)
	})

	eb.Subscribe(domain.EventNameRoundRevealed, func(ctx context.Context, e event.Event) error {
		ev := e.(domain.EventRoundRevealed)
		return a.pub.PublishRoundRevealed(ctx, ev.SessionCode, ev.Result)
	})
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, response{
		Result:  "success",
		Message: "baby shower API",
		Data: gin.H{
			"endpoints": []string{
				"POST /api/guestbook",
				"POST /api/pool",
				"POST /api/quiz",
				"POST /api/advice",
				"POST /api/vote",
				"GET /api/vote/leaderboard",
				"GET /api/stats",
				"GET /api/stream/:activity",
				"POST /api/game/sessions",
				"GET /api/game/sessions/:code",
				"POST /api/game/sessions/:code/join",
				"POST /api/game/sessions/:code/rounds",
				"POST /api/game/sessions/:code/votes",
				"POST /api/game/sessions/:code/reveal",
				"POST /api/game/sessions/:code/complete",
			},
		},
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			c.Abort()
			return
		}

		c.Next()
	}
}
