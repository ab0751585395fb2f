// Package roast produces the flavor text for the party mini-games: round
// scenarios and the short witty commentary shown at reveal.
//
// Generation is a capability behind the Generator interface with two
// implementations: Client calls an OpenAI-compatible chat-completions
// endpoint, Templates picks deterministic canned lines. Which one a server
// gets is decided once, at construction, by credential presence.
package roast

import (
	"context"

	"github.com/haimn/showerparty/internal/domain"
)

type Scenario struct {
	Text      string
	MomOption string
	DadOption string
}

type ScenarioRequest struct {
	MomName string
	DadName string
	Round   int
	// Intensity in [0,1] controls how spicy the scenario should be.
	Intensity float64
}

type CommentaryRequest struct {
	MomName      string
	DadName      string
	ScenarioText string
	CrowdChoice  domain.ParentChoice
	ActualChoice domain.ParentChoice
	MomVotes     int64
	DadVotes     int64
	// PerceptionGap is the percentage of guests who guessed wrong.
	PerceptionGap float64
}

type Generator interface {
	Scenario(ctx context.Context, req ScenarioRequest) (Scenario, error)
	Commentary(ctx context.Context, req CommentaryRequest) (string, error)
}

// NewGenerator returns the HTTP-backed generator when an API key is
// configured and the template generator otherwise.
func NewGenerator(c Config) Generator {
	if c.APIKey == "" {
		return NewTemplates()
	}
	return NewClient(c)
}
