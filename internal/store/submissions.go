package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/haimn/showerparty/internal/domain"
)

// InsertSubmission appends one submission row, filling in its ID and create time.
func (s *Store) InsertSubmission(ctx context.Context, sub *domain.Submission) error {
	id, err := newID("submission")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO submissions (submission_id, name, activity_type, activity_data, create_time)
VALUES ($1, $2, $3, $4, $5);`

	t := now()
	if _, err := s.db.Exec(ctx, stmt, id, sub.Name, sub.Activity, sub.Data, t); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	sub.SubmissionID = id
	sub.CreateTime = t
	return nil
}

// CountSubmissions returns the number of submissions of one activity type.
func (s *Store) CountSubmissions(ctx context.Context, activity domain.ActivityType) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM submissions WHERE activity_type = $1;`

	var n int64
	if err := s.db.QueryRow(ctx, stmt, activity).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}

	return n, nil
}

// CountByActivity returns submission counts keyed by activity type.
// Activities with no submissions yet are present with a zero count.
func (s *Store) CountByActivity(ctx context.Context) (map[domain.ActivityType]int64, error) {
	const stmt = `SELECT activity_type, COUNT(*) FROM submissions GROUP BY activity_type;`

	rows, err := s.db.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("count by activity: %w", err)
	}

	type row struct {
		activity domain.ActivityType
		count    int64
	}

	counted, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var c row
		if err := r.Scan(&c.activity, &c.count); err != nil {
			return row{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("count by activity: %w", err)
	}

	counts := make(map[domain.ActivityType]int64, len(domain.Activities))
	for _, a := range domain.Activities {
		counts[a] = 0
	}
	for _, c := range counted {
		counts[c.activity] = c.count
	}

	return counts, nil
}

// CountNameVotes returns the number of ballots cast. Ballots live in their
// own table, so the grouped submission counts never see them.
func (s *Store) CountNameVotes(ctx context.Context) (int64, error) {
	const stmt = `SELECT COUNT(*) FROM name_votes;`

	var n int64
	if err := s.db.QueryRow(ctx, stmt).Scan(&n); err != nil {
		return 0, fmt.Errorf("count name votes: %w", err)
	}

	return n, nil
}

// InsertNameVote appends one name-vote row, filling in its ID and create time.
func (s *Store) InsertNameVote(ctx context.Context, v *domain.NameVote) error {
	id, err := newID("vote")
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO name_votes (vote_id, voter_name, selected_names, create_time)
VALUES ($1, $2, $3, $4);`

	t := now()
	if _, err := s.db.Exec(ctx, stmt, id, v.VoterName, v.SelectedNames, t); err != nil {
		return fmt.Errorf("insert name vote: %w", err)
	}

	v.VoteID = id
	v.CreateTime = t
	return nil
}
