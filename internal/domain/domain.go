package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType discriminates which form schema a Submission's Data follows.
type ActivityType string

const (
	ActivityGuestbook ActivityType = "guestbook"
	ActivityPool      ActivityType = "pool"
	ActivityQuiz      ActivityType = "quiz"
	ActivityAdvice    ActivityType = "advice"
	ActivityVoting    ActivityType = "voting"
)

// Activities lists every activity type guests can submit to.
var Activities = []ActivityType{
	ActivityGuestbook,
	ActivityPool,
	ActivityQuiz,
	ActivityAdvice,
	ActivityVoting,
}

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityGuestbook, ActivityPool, ActivityQuiz, ActivityAdvice, ActivityVoting:
		return true
	}
	return false
}

// Submission is one guest's recorded activity-form entry.
// Rows are append-only: never mutated, never deleted.
type Submission struct {
	SubmissionID string
	Name         string
	Activity     ActivityType
	Data         map[string]any
	CreateTime   time.Time
}

// NameVote records a guest's baby-name ballot.
type NameVote struct {
	VoteID        string
	VoterName     string
	SelectedNames []string
	CreateTime    time.Time
}

// NameStanding is one entry of the name-vote leaderboard,
// sorted by vote count in descending order.
type NameStanding struct {
	Name  string
	Votes int64
}

// Milestone marks a submission-count threshold being crossed for an activity.
type Milestone struct {
	Activity  ActivityType
	Threshold int64
	Message   string
}

// GameStatus is the lifecycle of a mini-game session.
type GameStatus string

const (
	GameStatusSetup     GameStatus = "setup"
	GameStatusVoting    GameStatus = "voting"
	GameStatusRevealed  GameStatus = "revealed"
	GameStatusCompleted GameStatus = "completed"
)

// ParentChoice is a vote or answer in the "Mom vs Dad" game.
type ParentChoice string

const (
	ChoiceMom ParentChoice = "mom"
	ChoiceDad ParentChoice = "dad"
)

func (c ParentChoice) Valid() bool {
	return c == ChoiceMom || c == ChoiceDad
}

// GameSession is one run of a party mini-game.
type GameSession struct {
	SessionID    string
	SessionCode  string
	AdminCode    string
	MomName      string
	DadName      string
	Status       GameStatus
	CurrentRound int
	TotalRounds  int
	CreateTime   time.Time
}

// GameScenario is one round's prompt, AI-generated or from a template.
// Read-only after creation.
type GameScenario struct {
	ScenarioID string
	SessionID  string
	Round      int
	Text       string
	MomOption  string
	DadOption  string
	Intensity  float64
}

// GameVote is one guest's vote on a scenario. Append-only; a guest may
// resubmit and both votes count (see DESIGN.md).
type GameVote struct {
	VoteID     string
	ScenarioID string
	GuestName  string
	Choice     ParentChoice
	CreateTime time.Time
}

// GameResult captures a round's outcome, written once at reveal.
type GameResult struct {
	ResultID      string
	ScenarioID    string
	MomVotes      int64
	DadVotes      int64
	CrowdChoice   ParentChoice
	ActualChoice  ParentChoice
	PerceptionGap decimal.Decimal
	Roast         string
}
