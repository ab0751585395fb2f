package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/errors"
)

// InsertGameSession appends a new session, filling in its ID and create time.
// A session-code collision surfaces as CodeAlreadyExists so the caller can
// generate a fresh code.
func (s *Store) InsertGameSession(ctx context.Context, gs *domain.GameSession) error {
	id, err := newID("session")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO game_sessions (session_id, session_code, admin_code, mom_name, dad_name, status, current_round, total_rounds, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	t := now()
	_, err = s.db.Exec(ctx, stmt, id, gs.SessionCode, gs.AdminCode, gs.MomName, gs.DadName, gs.Status, gs.CurrentRound, gs.TotalRounds, t)
	if isUniqueViolation(err) {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("session code already in use: %s", gs.SessionCode),
			errors.WithCause(err),
		)
	}
	if err != nil {
		return fmt.Errorf("insert game session: %w", err)
	}

	gs.SessionID = id
	gs.CreateTime = t
	return nil
}

// GetGameSession loads a session by its public code.
func (s *Store) GetGameSession(ctx context.Context, code string) (*domain.GameSession, error) {
	const stmt = `
SELECT session_id, session_code, admin_code, mom_name, dad_name, status, current_round, total_rounds, create_time
FROM game_sessions
WHERE session_code = $1;`

	var gs domain.GameSession
	err := s.db.QueryRow(ctx, stmt, code).Scan(
		&gs.SessionID, &gs.SessionCode, &gs.AdminCode, &gs.MomName, &gs.DadName,
		&gs.Status, &gs.CurrentRound, &gs.TotalRounds, &gs.CreateTime,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("game session not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("get game session: %w", err)
	}

	return &gs, nil
}

// UpdateGameSessionState moves a session to a new status and round.
func (s *Store) UpdateGameSessionState(ctx context.Context, sessionID string, status domain.GameStatus, currentRound int) error {
	const stmt = `UPDATE game_sessions SET status = $2, current_round = $3 WHERE session_id = $1;`

	tag, err := s.db.Exec(ctx, stmt, sessionID, status, currentRound)
	if err != nil {
		return fmt.Errorf("update game session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundf("game session not found: %s", sessionID)
	}

	return nil
}

// InsertGameScenario appends one round's scenario, filling in its ID.
func (s *Store) InsertGameScenario(ctx context.Context, sc *domain.GameScenario) error {
	id, err := newID("scenario")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO game_scenarios (scenario_id, session_id, round, scenario_text, mom_option, dad_option, intensity)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err = s.db.Exec(ctx, stmt, id, sc.SessionID, sc.Round, sc.Text, sc.MomOption, sc.DadOption, sc.Intensity)
	if isUniqueViolation(err) {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("round %d already has a scenario", sc.Round),
			errors.WithCause(err),
		)
	}
	if err != nil {
		return fmt.Errorf("insert game scenario: %w", err)
	}

	sc.ScenarioID = id
	return nil
}

// GetGameScenario loads a session's scenario for one round.
func (s *Store) GetGameScenario(ctx context.Context, sessionID string, round int) (*domain.GameScenario, error) {
	const stmt = `
SELECT scenario_id, session_id, round, scenario_text, mom_option, dad_option, intensity
FROM game_scenarios
WHERE session_id = $1 AND round = $2;`

	var sc domain.GameScenario
	err := s.db.QueryRow(ctx, stmt, sessionID, round).Scan(
		&sc.ScenarioID, &sc.SessionID, &sc.Round, &sc.Text, &sc.MomOption, &sc.DadOption, &sc.Intensity,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("no scenario for round %d", round)
	}
	if err != nil {
		return nil, fmt.Errorf("get game scenario: %w", err)
	}

	return &sc, nil
}

// InsertGameVote appends one guest vote. Votes are append-only; nothing
// stops a guest voting twice on the same scenario.
func (s *Store) InsertGameVote(ctx context.Context, v *domain.GameVote) error {
	id, err := newID("game vote")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO game_votes (vote_id, scenario_id, guest_name, vote_choice, create_time)
VALUES ($1, $2, $3, $4, $5);`

	t := now()
	if _, err := s.db.Exec(ctx, stmt, id, v.ScenarioID, v.GuestName, v.Choice, t); err != nil {
		return fmt.Errorf("insert game vote: %w", err)
	}

	v.VoteID = id
	v.CreateTime = t
	return nil
}

// TallyGameVotes counts mom and dad votes for one scenario.
func (s *Store) TallyGameVotes(ctx context.Context, scenarioID string) (mom, dad int64, err error) {
	const stmt = `
SELECT
	COUNT(*) FILTER (WHERE vote_choice = 'mom'),
	COUNT(*) FILTER (WHERE vote_choice = 'dad')
FROM game_votes
WHERE scenario_id = $1;`

	if err := s.db.QueryRow(ctx, stmt, scenarioID).Scan(&mom, &dad); err != nil {
		return 0, 0, fmt.Errorf("tally game votes: %w", err)
	}

	return mom, dad, nil
}

// InsertGameResult writes a round's result exactly once.
func (s *Store) InsertGameResult(ctx context.Context, r *domain.GameResult) error {
	id, err := newID("result")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO game_results (result_id, scenario_id, mom_votes, dad_votes, crowd_choice, actual_choice, perception_gap, roast_commentary)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err = s.db.Exec(ctx, stmt, id, r.ScenarioID, r.MomVotes, r.DadVotes, r.CrowdChoice, r.ActualChoice, r.PerceptionGap, r.Roast)
	if isUniqueViolation(err) {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("round already revealed: scenario=%s", r.ScenarioID),
			errors.WithCause(err),
		)
	}
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}

	r.ResultID = id
	return nil
}

// GetGameResult loads the result for one scenario, if revealed.
func (s *Store) GetGameResult(ctx context.Context, scenarioID string) (*domain.GameResult, error) {
	const stmt = `
SELECT result_id, scenario_id, mom_votes, dad_votes, crowd_choice, actual_choice, perception_gap, roast_commentary
FROM game_results
WHERE scenario_id = $1;`

	var r domain.GameResult
	err := s.db.QueryRow(ctx, stmt, scenarioID).Scan(
		&r.ResultID, &r.ScenarioID, &r.MomVotes, &r.DadVotes,
		&r.CrowdChoice, &r.ActualChoice, &r.PerceptionGap, &r.Roast,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFoundf("no result for scenario: %s", scenarioID)
	}
	if err != nil {
		return nil, fmt.Errorf("get game result: %w", err)
	}

	return &r, nil
}
