// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/agora/models"
)

// Kind names a record family sharing one uniqueness rule.
type Kind string

const (
	KindVotes    Kind = "votes"
	KindSupports Kind = "supports"
)

// Scope addresses one collection of keyed records: votes on a topic or
// supports on a proposal. Keeping the scope a (kind, id) pair instead of
// a concatenated name rules out id-injection and collision between the
// two families.
type Scope struct {
	Kind Kind
	ID   string
}

// Votes is the vote scope for a topic. A promoted proposal's id is also
// its topic id, so the same identifier addresses both its proposal
// document and its vote scope.
func Votes(topicID string) Scope {
	return Scope{Kind: KindVotes, ID: topicID}
}

// Supports is the support scope for a proposal.
func Supports(proposalID string) Scope {
	return Scope{Kind: KindSupports, ID: proposalID}
}

// Record is one user's entry within a scope.
type Record struct {
	UserID      string
	Choice      string
	DisplayName string
	CreatedAt   time.Time
}

// Store is a keyed-upsert store: at most one record per (scope, user),
// enforced by the composite primary key. Writing the same key again
// overwrites rather than duplicates, so a same-user race self-corrects
// and recounted tallies stay accurate.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Has reports whether a record exists for (scope, userID).
func (s *Store) Has(scope Scope, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM tally_record
			WHERE scope_kind = $1 AND scope_id = $2 AND user_id = $3
		)
	`, string(scope.Kind), scope.ID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check record: %w", err)
	}
	return exists, nil
}

// Get returns the record for (scope, userID), if any.
func (s *Store) Get(scope Scope, userID string) (Record, bool, error) {
	rec := Record{UserID: userID}
	err := s.db.QueryRow(`
		SELECT choice, display_name, created_at FROM tally_record
		WHERE scope_kind = $1 AND scope_id = $2 AND user_id = $3
	`, string(scope.Kind), scope.ID, userID).Scan(&rec.Choice, &rec.DisplayName, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to load record: %w", err)
	}
	return rec, true, nil
}

// Write upserts the record under its (scope, user) key.
func (s *Store) Write(scope Scope, rec Record) error {
	_, err := s.db.Exec(`
		INSERT INTO tally_record (scope_kind, scope_id, user_id, choice, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scope_kind, scope_id, user_id)
		DO UPDATE SET choice = EXCLUDED.choice, created_at = EXCLUDED.created_at
	`, string(scope.Kind), scope.ID, rec.UserID, rec.Choice, rec.DisplayName, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Delete removes the record for (scope, userID). Deleting a missing
// record is not an error.
func (s *Store) Delete(scope Scope, userID string) error {
	_, err := s.db.Exec(`
		DELETE FROM tally_record
		WHERE scope_kind = $1 AND scope_id = $2 AND user_id = $3
	`, string(scope.Kind), scope.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Count returns the number of records in the scope.
func (s *Store) Count(scope Scope) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tally_record
		WHERE scope_kind = $1 AND scope_id = $2
	`, string(scope.Kind), scope.ID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Tally recounts agree/disagree for the scope. Counts are always derived
// by re-query, never incremented in place.
func (s *Store) Tally(scope Scope) (models.Tally, error) {
	rows, err := s.db.Query(`
		SELECT choice, COUNT(*) FROM tally_record
		WHERE scope_kind = $1 AND scope_id = $2
		GROUP BY choice
	`, string(scope.Kind), scope.ID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("failed to tally records: %w", err)
	}
	defer rows.Close()

	var t models.Tally
	for rows.Next() {
		var choice string
		var count int
		if err := rows.Scan(&choice, &count); err != nil {
			return models.Tally{}, fmt.Errorf("failed to scan tally row: %w", err)
		}
		switch choice {
		case models.ChoiceAgree:
			t.Agree = count
		case models.ChoiceDisagree:
			t.Disagree = count
		}
	}
	if err := rows.Err(); err != nil {
		return models.Tally{}, fmt.Errorf("failed to read tally rows: %w", err)
	}
	return t, nil
}

// CountByScope returns scope id -> record count for every scope of the
// given kind. The lifecycle evaluator uses this to fetch all support
// counts in one query.
func (s *Store) CountByScope(kind Kind) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT scope_id, COUNT(*) FROM tally_record
		WHERE scope_kind = $1
		GROUP BY scope_id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to count scopes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan scope count: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scope counts: %w", err)
	}
	return counts, nil
}
