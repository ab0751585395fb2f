// Package game runs the "Mom vs Dad" party mini-game: an admin opens a
// session, guests join with a short code and vote on who-is-more-likely-to
// scenarios, and each reveal compares the crowd against the parents' locked
// answer, garnished with a roast.
package game

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/errors"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/roast"
	"github.com/haimn/showerparty/internal/sanitize"
)

const (
	defaultTotalRounds = 5
	maxTotalRounds     = 20

	// createRetries bounds session-code collision retries.
	createRetries = 3
)

type Store interface {
	InsertGameSession(ctx context.Context, gs *domain.GameSession) error
	GetGameSession(ctx context.Context, code string) (*domain.GameSession, error)
	UpdateGameSessionState(ctx context.Context, sessionID string, status domain.GameStatus, currentRound int) error
	InsertGameScenario(ctx context.Context, sc *domain.GameScenario) error
	GetGameScenario(ctx context.Context, sessionID string, round int) (*domain.GameScenario, error)
	InsertGameVote(ctx context.Context, v *domain.GameVote) error
	TallyGameVotes(ctx context.Context, scenarioID string) (mom, dad int64, err error)
	InsertGameResult(ctx context.Context, r *domain.GameResult) error
	GetGameResult(ctx context.Context, scenarioID string) (*domain.GameResult, error)
}

type Config struct {
	Store    Store
	Roast    roast.Generator
	EventBus *event.Bus

	// OnFallback is invoked whenever the roast generator fails and the
	// template fallback steps in. Optional; used for metrics.
	OnFallback func()
}

type Service struct {
	store      Store
	gen        roast.Generator
	fallback   roast.Generator
	eb         *event.Bus
	onFallback func()
}

func NewService(c Config) *Service {
	onFallback := c.OnFallback
	if onFallback == nil {
		onFallback = func() {}
	}

	return &Service{
		store:      c.Store,
		gen:        c.Roast,
		fallback:   roast.NewTemplates(),
		eb:         c.EventBus,
		onFallback: onFallback,
	}
}

type CreateSessionRequest struct {
	MomName     string
	DadName     string
	TotalRounds int
}

// CreateSession opens a new game in the setup state and mints its codes.
// The admin code is returned exactly once, here.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.GameSession, error) {
	momName := sanitize.Name(req.MomName)
	dadName := sanitize.Name(req.DadName)
	if momName == "" || dadName == "" {
		return nil, errors.InvalidArgumentf("both parent names are required")
	}

	totalRounds := req.TotalRounds
	if totalRounds <= 0 {
		totalRounds = defaultTotalRounds
	}
	if totalRounds > maxTotalRounds {
		totalRounds = maxTotalRounds
	}

	var lastErr error
	for i := 0; i < createRetries; i++ {
		gs := &domain.GameSession{
			SessionCode:  newSessionCode(),
			AdminCode:    newAdminCode(),
			MomName:      momName,
			DadName:      dadName,
			Status:       domain.GameStatusSetup,
			CurrentRound: 0,
			TotalRounds:  totalRounds,
		}

		err := s.store.InsertGameSession(ctx, gs)
		if err == nil {
			return gs, nil
		}
		if errors.Convert(err).Code != errors.CodeAlreadyExists {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

type JoinRequest struct {
	SessionCode string
	GuestName   string
}

type JoinResponse struct {
	Session  domain.GameSession
	Scenario *domain.GameScenario
}

// Join lets a guest into a session that is still accepting players and
// returns the current scenario when a round is underway.
func (s *Service) Join(ctx context.Context, req JoinRequest) (*JoinResponse, error) {
	if sanitize.Name(req.GuestName) == "" {
		return nil, errors.InvalidArgumentf("guest name is required")
	}

	gs, err := s.store.GetGameSession(ctx, req.SessionCode)
	if err != nil {
		return nil, err
	}

	if gs.Status != domain.GameStatusSetup && gs.Status != domain.GameStatusVoting {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("session is no longer accepting players"))
	}

	resp := &JoinResponse{Session: redacted(gs)}
	if gs.Status == domain.GameStatusVoting {
		sc, err := s.store.GetGameScenario(ctx, gs.SessionID, gs.CurrentRound)
		if err != nil {
			return nil, err
		}
		resp.Scenario = sc
	}

	return resp, nil
}

type StartRoundRequest struct {
	SessionCode string
	AdminCode   string
	Intensity   float64
}

// StartRound creates the next round's scenario and opens voting.
func (s *Service) StartRound(ctx context.Context, req StartRoundRequest) (*domain.GameScenario, error) {
	gs, err := s.admin(ctx, req.SessionCode, req.AdminCode)
	if err != nil {
		return nil, err
	}

	if gs.Status != domain.GameStatusSetup && gs.Status != domain.GameStatusRevealed {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("cannot start a round while %s", gs.Status))
	}

	round := gs.CurrentRound + 1
	if round > gs.TotalRounds {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("all %d rounds have been played", gs.TotalRounds))
	}

	intensity := req.Intensity
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}

	scReq := roast.ScenarioRequest{
		MomName:   gs.MomName,
		DadName:   gs.DadName,
		Round:     round,
		Intensity: intensity,
	}
	content, err := s.gen.Scenario(ctx, scReq)
	if err != nil {
		// Gameplay never blocks on the AI provider.
		slog.WarnContext(ctx, "game: scenario generation failed, using template",
			"session", gs.SessionCode,
			"round", round,
			"error", err,
		)
		s.onFallback()
		content, _ = s.fallback.Scenario(ctx, scReq)
	}

	sc := &domain.GameScenario{
		SessionID: gs.SessionID,
		Round:     round,
		Text:      content.Text,
		MomOption: content.MomOption,
		DadOption: content.DadOption,
		Intensity: intensity,
	}
	if err := s.store.InsertGameScenario(ctx, sc); err != nil {
		return nil, err
	}

	if err := s.store.UpdateGameSessionState(ctx, gs.SessionID, domain.GameStatusVoting, round); err != nil {
		return nil, err
	}

	return sc, nil
}

type VoteRequest struct {
	SessionCode string
	GuestName   string
	Choice      domain.ParentChoice
}

// SubmitVote appends one guest vote on the current scenario. Votes are not
// deduplicated: resubmitting counts again (see DESIGN.md).
func (s *Service) SubmitVote(ctx context.Context, req VoteRequest) (*domain.GameVote, error) {
	guest := sanitize.Name(req.GuestName)
	if guest == "" {
		return nil, errors.InvalidArgumentf("guest name is required")
	}
	if !req.Choice.Valid() {
		return nil, errors.InvalidArgumentf("vote must be %q or %q", domain.ChoiceMom, domain.ChoiceDad)
	}

	gs, err := s.store.GetGameSession(ctx, req.SessionCode)
	if err != nil {
		return nil, err
	}
	if gs.Status != domain.GameStatusVoting {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("voting is not open"))
	}

	sc, err := s.store.GetGameScenario(ctx, gs.SessionID, gs.CurrentRound)
	if err != nil {
		return nil, err
	}

	v := &domain.GameVote{
		ScenarioID: sc.ScenarioID,
		GuestName:  guest,
		Choice:     req.Choice,
	}
	if err := s.store.InsertGameVote(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

type RevealRequest struct {
	SessionCode  string
	AdminCode    string
	ActualChoice domain.ParentChoice
}

// Reveal closes the round: tallies the crowd, compares it to the parents'
// locked answer, computes the perception gap and writes the result once.
func (s *Service) Reveal(ctx context.Context, req RevealRequest) (*domain.GameResult, error) {
	if !req.ActualChoice.Valid() {
		return nil, errors.InvalidArgumentf("actual choice must be %q or %q", domain.ChoiceMom, domain.ChoiceDad)
	}

	gs, err := s.admin(ctx, req.SessionCode, req.AdminCode)
	if err != nil {
		return nil, err
	}
	if gs.Status != domain.GameStatusVoting {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no round is open for reveal"))
	}

	sc, err := s.store.GetGameScenario(ctx, gs.SessionID, gs.CurrentRound)
	if err != nil {
		return nil, err
	}

	mom, dad, err := s.store.TallyGameVotes(ctx, sc.ScenarioID)
	if err != nil {
		return nil, err
	}

	// Ties go to mom; with zero votes the crowd nominally agrees with her.
	crowd := domain.ChoiceMom
	if dad > mom {
		crowd = domain.ChoiceDad
	}

	gap := perceptionGap(mom, dad, req.ActualChoice)

	roastReq := roast.CommentaryRequest{
		MomName:       gs.MomName,
		DadName:       gs.DadName,
		ScenarioText:  sc.Text,
		CrowdChoice:   crowd,
		ActualChoice:  req.ActualChoice,
		MomVotes:      mom,
		DadVotes:      dad,
		PerceptionGap: gap.InexactFloat64(),
	}
	commentary, err := s.gen.Commentary(ctx, roastReq)
	if err != nil {
		slog.WarnContext(ctx, "game: roast generation failed, using template",
			"session", gs.SessionCode,
			"round", gs.CurrentRound,
			"error", err,
		)
		s.onFallback()
		commentary, _ = s.fallback.Commentary(ctx, roastReq)
	}

	result := &domain.GameResult{
		ScenarioID:    sc.ScenarioID,
		MomVotes:      mom,
		DadVotes:      dad,
		CrowdChoice:   crowd,
		ActualChoice:  req.ActualChoice,
		PerceptionGap: gap,
		Roast:         commentary,
	}
	if err := s.store.InsertGameResult(ctx, result); err != nil {
		return nil, err
	}

	if err := s.store.UpdateGameSessionState(ctx, gs.SessionID, domain.GameStatusRevealed, gs.CurrentRound); err != nil {
		return nil, err
	}

	s.eb.Publish(ctx, domain.EventRoundRevealed{
		SessionCode: gs.SessionCode,
		Result:      *result,
	})

	return result, nil
}

type CompleteRequest struct {
	SessionCode string
	AdminCode   string
}

// Complete ends the game after a reveal.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) error {
	gs, err := s.admin(ctx, req.SessionCode, req.AdminCode)
	if err != nil {
		return err
	}
	if gs.Status != domain.GameStatusRevealed {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("cannot complete while %s", gs.Status))
	}

	return s.store.UpdateGameSessionState(ctx, gs.SessionID, domain.GameStatusCompleted, gs.CurrentRound)
}

type StateResponse struct {
	Session  domain.GameSession
	Scenario *domain.GameScenario
	Result   *domain.GameResult
}

// GetState returns the public view of a session: its scenario while voting
// and the round result once revealed.
func (s *Service) GetState(ctx context.Context, sessionCode string) (*StateResponse, error) {
	gs, err := s.store.GetGameSession(ctx, sessionCode)
	if err != nil {
		return nil, err
	}

	resp := &StateResponse{Session: redacted(gs)}

	if gs.CurrentRound == 0 {
		return resp, nil
	}

	sc, err := s.store.GetGameScenario(ctx, gs.SessionID, gs.CurrentRound)
	if err != nil {
		return nil, err
	}
	resp.Scenario = sc

	if gs.Status == domain.GameStatusRevealed || gs.Status == domain.GameStatusCompleted {
		r, err := s.store.GetGameResult(ctx, sc.ScenarioID)
		if err != nil {
			return nil, err
		}
		resp.Result = r
	}

	return resp, nil
}

func (s *Service) admin(ctx context.Context, sessionCode, adminCode string) (*domain.GameSession, error) {
	gs, err := s.store.GetGameSession(ctx, sessionCode)
	if err != nil {
		return nil, err
	}
	if adminCode == "" || gs.AdminCode != adminCode {
		return nil, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("admin code does not match"))
	}

	return gs, nil
}

// perceptionGap is the percentage of guests who guessed against the
// parents' locked answer, 0 when nobody voted.
func perceptionGap(mom, dad int64, actual domain.ParentChoice) decimal.Decimal {
	total := mom + dad
	if total == 0 {
		return decimal.Zero
	}

	wrong := mom
	if actual == domain.ChoiceMom {
		wrong = dad
	}

	return decimal.NewFromInt(wrong * 100).
		Div(decimal.NewFromInt(total)).
		Round(1)
}

// redacted strips the admin code from a session before it leaves the service.
func redacted(gs *domain.GameSession) domain.GameSession {
	out := *gs
	out.AdminCode = ""
	return out
}
