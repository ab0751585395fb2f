// Package store wraps the Postgres tables behind the party backend.
//
// Every method is a single autocommitting statement: no retries, no
// cross-call transaction semantics. Expected tables:
//
//	submissions   (submission_id uuid PK, name text, activity_type text,
//	               activity_data jsonb, create_time timestamptz)
//	name_votes    (vote_id uuid PK, voter_name text, selected_names text[],
//	               create_time timestamptz)
//	game_sessions (session_id uuid PK, session_code text UNIQUE, admin_code text,
//	               mom_name text, dad_name text, status text,
//	               current_round int, total_rounds int, create_time timestamptz)
//	game_scenarios (scenario_id uuid PK, session_id uuid FK, round int,
//	               scenario_text text, mom_option text, dad_option text,
//	               intensity float8, UNIQUE (session_id, round))
//	game_votes    (vote_id uuid PK, scenario_id uuid FK, guest_name text,
//	               vote_choice text, create_time timestamptz)
//	game_results  (result_id uuid PK, scenario_id uuid FK UNIQUE,
//	               mom_votes int, dad_votes int, crowd_choice text,
//	               actual_choice text, perception_gap numeric, roast_commentary text)
package store

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const codeUniqueViolation = "23505"

type Config struct {
	DB *pgxpool.Pool
}

type Store struct {
	db *pgxpool.Pool
}

func New(c Config) *Store {
	return &Store{db: c.DB}
}

func newID(kind string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate %s ID: %w", kind, err)
	}
	return id.String(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func now() time.Time {
	return time.Now().UTC()
}
