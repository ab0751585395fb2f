// Package dualwrite fans a submission out to the primary Postgres store and
// a secondary spreadsheet webhook.
//
// This is an at-least-one-of-two availability policy, not a transactional
// dual write: the two backends can diverge silently and no reconciliation is
// attempted. The Outcome type keeps both branch results visible so callers
// and tests can assert on each independently.
package dualwrite

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haimn/showerparty/internal/domain"
)

// Backend names used to tag branch errors.
const (
	BackendPostgres = "Postgres"
	BackendSheets   = "Google Sheets"
)

// ErrDisabled marks a branch that was skipped because it is not configured.
var ErrDisabled = errors.New("backend not configured")

type Primary interface {
	InsertSubmission(ctx context.Context, sub *domain.Submission) error
}

type Secondary interface {
	Enabled() bool
	Append(ctx context.Context, sub domain.Submission) error
}

// BackendError is one failed branch of a dual write.
type BackendError struct {
	Backend string
	Err     error
}

func (e BackendError) Error() string {
	return e.Backend + ": " + e.Err.Error()
}

func (e BackendError) Unwrap() error {
	return e.Err
}

// Outcome reports both branches of one dual write. A skipped secondary is
// recorded as ErrDisabled but not counted as a failure.
type Outcome struct {
	Primary   error
	Secondary error
	Errors    []BackendError
}

// Succeeded reports whether at least one backend accepted the write.
func (o Outcome) Succeeded() bool {
	return o.Primary == nil || o.Secondary == nil
}

type Config struct {
	Primary   Primary
	Secondary Secondary
}

type Coordinator struct {
	primary   Primary
	secondary Secondary
}

func New(c Config) *Coordinator {
	return &Coordinator{
		primary:   c.Primary,
		secondary: c.Secondary,
	}
}

// Submit writes the submission to both backends concurrently. Each branch
// failure lands in the outcome's error list; neither branch aborts the other.
func (c *Coordinator) Submit(ctx context.Context, sub *domain.Submission) Outcome {
	var out Outcome

	// The primary fills in the submission's ID and create time; the mirror
	// works from a snapshot taken before the fan-out so the branches never
	// share a mutable row.
	mirror := *sub
	if mirror.CreateTime.IsZero() {
		mirror.CreateTime = time.Now().UTC()
	}

	var eg errgroup.Group

	eg.Go(func() error {
		out.Primary = c.primary.InsertSubmission(ctx, sub)
		return nil
	})

	eg.Go(func() error {
		if c.secondary == nil || !c.secondary.Enabled() {
			out.Secondary = ErrDisabled
			return nil
		}
		out.Secondary = c.secondary.Append(ctx, mirror)
		return nil
	})

	_ = eg.Wait()

	if out.Primary != nil {
		out.Errors = append(out.Errors, BackendError{Backend: BackendPostgres, Err: out.Primary})
	}
	if out.Secondary != nil && !errors.Is(out.Secondary, ErrDisabled) {
		out.Errors = append(out.Errors, BackendError{Backend: BackendSheets, Err: out.Secondary})
	}

	for _, be := range out.Errors {
		slog.ErrorContext(ctx, "dualwrite: backend write failed",
			"backend", be.Backend,
			"activity", sub.Activity,
			"error", be.Err,
		)
	}

	return out
}
