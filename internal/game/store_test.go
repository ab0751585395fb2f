package game_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/errors"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]*domain.GameSession // by session code
	scenarios map[string]*domain.GameScenario
	votes     []domain.GameVote
	results   map[string]*domain.GameResult // by scenario ID
	seq       int
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[string]*domain.GameSession),
		scenarios: make(map[string]*domain.GameScenario),
		results:   make(map[string]*domain.GameResult),
	}
}

func (m *memStore) nextID(kind string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", kind, m.seq)
}

func (m *memStore) InsertGameSession(ctx context.Context, gs *domain.GameSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[gs.SessionCode]; ok {
		return errors.New(errors.CodeAlreadyExists)
	}

	gs.SessionID = m.nextID("session")
	cp := *gs
	m.sessions[gs.SessionCode] = &cp
	return nil
}

func (m *memStore) GetGameSession(ctx context.Context, code string) (*domain.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gs, ok := m.sessions[code]
	if !ok {
		return nil, errors.NotFoundf("game session not found: %s", code)
	}
	cp := *gs
	return &cp, nil
}

func (m *memStore) UpdateGameSessionState(ctx context.Context, sessionID string, status domain.GameStatus, currentRound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, gs := range m.sessions {
		if gs.SessionID == sessionID {
			gs.Status = status
			gs.CurrentRound = currentRound
			return nil
		}
	}
	return errors.NotFoundf("game session not found: %s", sessionID)
}

func (m *memStore) InsertGameScenario(ctx context.Context, sc *domain.GameScenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s/%d", sc.SessionID, sc.Round)
	if _, ok := m.scenarios[key]; ok {
		return errors.New(errors.CodeAlreadyExists)
	}

	sc.ScenarioID = m.nextID("scenario")
	cp := *sc
	m.scenarios[key] = &cp
	return nil
}

func (m *memStore) GetGameScenario(ctx context.Context, sessionID string, round int) (*domain.GameScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc, ok := m.scenarios[fmt.Sprintf("%s/%d", sessionID, round)]
	if !ok {
		return nil, errors.NotFoundf("no scenario for round %d", round)
	}
	cp := *sc
	return &cp, nil
}

func (m *memStore) InsertGameVote(ctx context.Context, v *domain.GameVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v.VoteID = m.nextID("vote")
	m.votes = append(m.votes, *v)
	return nil
}

func (m *memStore) TallyGameVotes(ctx context.Context, scenarioID string) (mom, dad int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.votes {
		if v.ScenarioID != scenarioID {
			continue
		}
		if v.Choice == domain.ChoiceMom {
			mom++
		} else {
			dad++
		}
	}
	return mom, dad, nil
}

func (m *memStore) InsertGameResult(ctx context.Context, r *domain.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.results[r.ScenarioID]; ok {
		return errors.New(errors.CodeAlreadyExists)
	}

	r.ResultID = m.nextID("result")
	cp := *r
	m.results[r.ScenarioID] = &cp
	return nil
}

func (m *memStore) GetGameResult(ctx context.Context, scenarioID string) (*domain.GameResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.results[scenarioID]
	if !ok {
		return nil, errors.NotFoundf("no result for scenario: %s", scenarioID)
	}
	cp := *r
	return &cp, nil
}
