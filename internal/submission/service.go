// Package submission is the service layer behind every activity form:
// guestbook, baby pool, quiz and advice. It validates the raw form fields,
// derives computed values, fans the row out to both backends and publishes
// bus events for the realtime layer.
package submission

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/haimn/showerparty/internal/domain"
	"github.com/haimn/showerparty/internal/dualwrite"
	"github.com/haimn/showerparty/internal/errors"
	"github.com/haimn/showerparty/internal/event"
	"github.com/haimn/showerparty/internal/sanitize"
)

// Writer fans a submission out to the configured backends.
type Writer interface {
	Submit(ctx context.Context, sub *domain.Submission) dualwrite.Outcome
}

// Counter reads submission counts back for milestone detection and stats.
type Counter interface {
	CountSubmissions(ctx context.Context, activity domain.ActivityType) (int64, error)
	CountByActivity(ctx context.Context) (map[domain.ActivityType]int64, error)
	CountNameVotes(ctx context.Context) (int64, error)
}

type Config struct {
	Writer   Writer
	Counter  Counter
	EventBus *event.Bus

	// OnMirrorFailure is invoked when the primary store accepted a row but
	// the spreadsheet mirror did not. Optional; used for metrics.
	OnMirrorFailure func()
}

type Service struct {
	w               Writer
	counter         Counter
	eb              *event.Bus
	onMirrorFailure func()
}

func NewService(c Config) *Service {
	onMirrorFailure := c.OnMirrorFailure
	if onMirrorFailure == nil {
		onMirrorFailure = func() {}
	}

	return &Service{
		w:               c.Writer,
		counter:         c.Counter,
		eb:              c.EventBus,
		onMirrorFailure: onMirrorFailure,
	}
}

type CreateRequest struct {
	Activity domain.ActivityType
	// Fields holds the raw form values, keyed by their wire names.
	Fields map[string]string
}

type CreateResponse struct {
	Submission domain.Submission
	Message    string
	// Score is set for quiz submissions only.
	Score *int
	// Mirrored reports whether the spreadsheet webhook accepted the row too.
	Mirrored bool
}

// Create validates and persists one activity submission.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	schema, ok := schemas[req.Activity]
	if !ok {
		return nil, errors.InvalidArgumentf("unknown activity type: %s", req.Activity)
	}

	res := sanitize.FormData(req.Fields, schema)
	if !res.Valid {
		return nil, errors.InvalidArgumentf("invalid fields: %s", joinFieldErrors(res.Errors))
	}

	sub := &domain.Submission{
		Name:     res.Data["name"],
		Activity: req.Activity,
		Data:     make(map[string]any, len(res.Data)),
	}
	for k, v := range res.Data {
		if k == "name" || v == "" {
			continue
		}
		sub.Data[k] = v
	}

	resp := &CreateResponse{
		Message: fmt.Sprintf("Thanks for your %s entry, %s!", req.Activity, sub.Name),
	}

	switch req.Activity {
	case domain.ActivityQuiz:
		score := Score(quizAnswers(res.Data))
		sub.Data["score"] = score
		resp.Score = &score
		resp.Message = fmt.Sprintf("You got %d/%d correct!", score, len(answerKey))
	case domain.ActivityPool:
		coercePoolGuesses(sub.Data)
	}

	out := s.w.Submit(ctx, sub)
	if !out.Succeeded() {
		return nil, errors.New(errors.CodeInternal,
			errors.WithMessagef("failed to save submission"),
			errors.WithCause(out.Errors[0]),
		)
	}
	resp.Mirrored = out.Secondary == nil
	if out.Primary == nil && out.Secondary != nil && !stderrors.Is(out.Secondary, dualwrite.ErrDisabled) {
		s.onMirrorFailure()
	}

	// Realtime clients only hear about rows Postgres actually holds; a
	// mirror-only write has no ID or create time to announce.
	if out.Primary == nil {
		s.eb.Publish(ctx, domain.EventSubmissionCreated{Submission: *sub})
	}
	s.checkMilestone(ctx, req.Activity, out)

	resp.Submission = *sub
	return resp, nil
}

// Stats returns per-activity submission counts. The voting bucket is filled
// from the ballot table, where name votes actually land.
func (s *Service) Stats(ctx context.Context) (map[domain.ActivityType]int64, error) {
	counts, err := s.counter.CountByActivity(ctx)
	if err != nil {
		return nil, err
	}

	votes, err := s.counter.CountNameVotes(ctx)
	if err != nil {
		return nil, err
	}
	counts[domain.ActivityVoting] = votes

	return counts, nil
}

// milestoneThresholds trigger a celebratory broadcast when a per-activity
// submission count lands exactly on one of them.
var milestoneThresholds = []int64{10, 25, 50, 100}

func (s *Service) checkMilestone(ctx context.Context, activity domain.ActivityType, out dualwrite.Outcome) {
	// The count only moves when the primary accepted the row.
	if out.Primary != nil {
		return
	}

	count, err := s.counter.CountSubmissions(ctx, activity)
	if err != nil {
		slog.ErrorContext(ctx, "submission: milestone count failed",
			"activity", activity,
			"error", err,
		)
		return
	}

	for _, threshold := range milestoneThresholds {
		if count == threshold {
			s.eb.Publish(ctx, domain.EventMilestoneReached{
				Milestone: domain.Milestone{
					Activity:  activity,
					Threshold: threshold,
					Message:   fmt.Sprintf("🎉 %d %s entries and counting!", threshold, activity),
				},
			})
			return
		}
	}
}

func coercePoolGuesses(data map[string]any) {
	for _, k := range []string{"weightGuess", "lengthGuess"} {
		raw, ok := data[k].(string)
		if !ok {
			continue
		}
		if d, err := decimal.NewFromString(raw); err == nil {
			data[k] = d.String()
		}
	}
}

func joinFieldErrors(fieldErrors map[string]string) string {
	msgs := make([]string, 0, len(fieldErrors))
	for _, msg := range fieldErrors {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
