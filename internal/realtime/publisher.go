// Package realtime carries new submissions and game events from the backend
// to connected clients over Redis pub/sub, one channel per activity type.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haimn/showerparty/internal/domain"
)

// Notification is the wire envelope of every pub/sub message.
type Notification struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SubmissionPayload is the Data of a submission.created notification.
type SubmissionPayload struct {
	SubmissionID string              `json:"submission_id"`
	Name         string              `json:"name"`
	ActivityType domain.ActivityType `json:"activity_type"`
	ActivityData map[string]any      `json:"activity_data"`
	CreateTime   time.Time           `json:"create_time"`
}

// MilestonePayload is the Data of a milestone.reached notification.
type MilestonePayload struct {
	ActivityType domain.ActivityType `json:"activity_type"`
	Threshold    int64               `json:"threshold"`
	Message      string              `json:"message"`
}

// VotePayload is the Data of a vote.cast notification.
type VotePayload struct {
	VoteID        string    `json:"vote_id"`
	VoterName     string    `json:"voter_name"`
	SelectedNames []string  `json:"selected_names"`
	CreateTime    time.Time `json:"create_time"`
}

// RevealPayload is the Data of a game.round_revealed notification.
type RevealPayload struct {
	SessionCode   string              `json:"session_code"`
	MomVotes      int64               `json:"mom_votes"`
	DadVotes      int64               `json:"dad_votes"`
	CrowdChoice   domain.ParentChoice `json:"crowd_choice"`
	ActualChoice  domain.ParentChoice `json:"actual_choice"`
	PerceptionGap string              `json:"perception_gap"`
	Roast         string              `json:"roast"`
}

// ActivityChannel names the pub/sub channel of one activity type.
func ActivityChannel(prefix string, activity domain.ActivityType) string {
	return fmt.Sprintf("%s:activity:%s", prefix, activity)
}

// GameChannel names the pub/sub channel of one game session.
func GameChannel(prefix, sessionCode string) string {
	return fmt.Sprintf("%s:game:%s", prefix, sessionCode)
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type PublisherConfig struct {
	Redis  Redis
	Prefix string
}

type Publisher struct {
	redis  Redis
	prefix string
}

func NewPublisher(c PublisherConfig) *Publisher {
	return &Publisher{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

func (p *Publisher) PublishSubmission(ctx context.Context, sub domain.Submission) error {
	return p.publish(ctx, ActivityChannel(p.prefix, sub.Activity), domain.EventNameSubmissionCreated, SubmissionPayload{
		SubmissionID: sub.SubmissionID,
		Name:         sub.Name,
		ActivityType: sub.Activity,
		ActivityData: sub.Data,
		CreateTime:   sub.CreateTime,
	})
}

func (p *Publisher) PublishVote(ctx context.Context, v domain.NameVote) error {
	return p.publish(ctx, ActivityChannel(p.prefix, domain.ActivityVoting), domain.EventNameNameVoteCast, VotePayload{
		VoteID:        v.VoteID,
		VoterName:     v.VoterName,
		SelectedNames: v.SelectedNames,
		CreateTime:    v.CreateTime,
	})
}

func (p *Publisher) PublishMilestone(ctx context.Context, m domain.Milestone) error {
	return p.publish(ctx, ActivityChannel(p.prefix, m.Activity), domain.EventNameMilestoneReached, MilestonePayload{
		ActivityType: m.Activity,
		Threshold:    m.Threshold,
		Message:      m.Message,
	})
}

func (p *Publisher) PublishRoundRevealed(ctx context.Context, sessionCode string, r domain.GameResult) error {
	return p.publish(ctx, GameChannel(p.prefix, sessionCode), domain.EventNameRoundRevealed, RevealPayload{
		SessionCode:   sessionCode,
		MomVotes:      r.MomVotes,
		DadVotes:      r.DadVotes,
		CrowdChoice:   r.CrowdChoice,
		ActualChoice:  r.ActualChoice,
		PerceptionGap: r.PerceptionGap.StringFixed(1),
		Roast:         r.Roast,
	})
}

func (p *Publisher) publish(ctx context.Context, channel, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("realtime: marshal %s: %v", event, err)
	}

	b, err := json.Marshal(Notification{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("realtime: marshal notification %s: %v", event, err)
	}

	return p.redis.Publish(ctx, channel, b).Err()
}
