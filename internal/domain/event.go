package domain

const (
	EventNameSubmissionCreated = "submission.created"
	EventNameMilestoneReached  = "milestone.reached"
	EventNameNameVoteCast      = "vote.cast"
	EventNameRoundRevealed     = "game.round_revealed"
)

type EventSubmissionCreated struct {
	Submission Submission
}

func (EventSubmissionCreated) Name() string { return EventNameSubmissionCreated }

type EventMilestoneReached struct {
	Milestone Milestone
}

func (EventMilestoneReached) Name() string { return EventNameMilestoneReached }

type EventNameVoteCast struct {
	Vote NameVote
}

func (EventNameVoteCast) Name() string { return EventNameNameVoteCast }

type EventRoundRevealed struct {
	SessionCode string
	Result      GameResult
}

func (EventRoundRevealed) Name() string { return EventNameRoundRevealed }
