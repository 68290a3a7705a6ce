// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package governance

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/agora/models"
)

var ErrTopicNotFound = errors.New("topic not found")

// Registry holds the set of vote topics: a fixed seed list ensured at
// startup, admin-created topics, and topics promoted from proposals.
// Topics are never deleted; the active/expired split is derived from the
// deadline at read time.
type Registry struct {
	db *sql.DB
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// seedTopics is the default topic set present on a fresh database.
var seedTopics = []models.Topic{
	{
		ID:           "assembly-recall",
		Title:        "National Assembly recall system",
		Subtitle:     "Should voters be able to recall sitting lawmakers?",
		Description:  "A recall vote would let constituents remove a lawmaker before the end of term.",
		AgreeText:    "Introduce recall",
		DisagreeText: "Keep current term protection",
		Color:        "blue",
		Deadline:     "2026-12-31",
	},
	{
		ID:           "public-broadcast-board",
		Title:        "Citizen seats on public broadcaster boards",
		Subtitle:     "Should citizens hold voting seats on public broadcaster governance boards?",
		Description:  "Reserved board seats filled by sortition from license-fee payers.",
		AgreeText:    "Reserve citizen seats",
		DisagreeText: "Keep appointed boards",
		Color:        "green",
		Deadline:     "2026-10-31",
	},
	{
		ID:           "budget-participation",
		Title:        "Participatory budgeting expansion",
		Subtitle:     "Should 5% of the municipal budget be allocated by citizen vote?",
		Description:  "Expands the current pilot to every district, with binding results.",
		AgreeText:    "Expand to 5%",
		DisagreeText: "Keep the pilot scope",
		Color:        "orange",
		Deadline:     "2026-08-31",
	},
}

// EnsureSeedTopics inserts any seed topic not already present. Existing
// rows (including ones an admin has edited) are left alone.
func (r *Registry) EnsureSeedTopics(now time.Time) error {
	for _, t := range seedTopics {
		t.CreatedAt = now
		if _, err := r.Add(t); err != nil {
			return fmt.Errorf("failed to seed topic %s: %w", t.ID, err)
		}
	}
	return nil
}

// Add inserts a topic if no topic with that id exists yet. The merge is
// idempotent: re-running promotion for the same proposal never produces
// a second topic. Returns whether a row was actually inserted.
func (r *Registry) Add(t models.Topic) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO topic (id, title, subtitle, description, detail, agree_text, disagree_text,
		                   color, deadline, start_date, promoted_from, proposer_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.Title, t.Subtitle, t.Description, t.Detail, t.AgreeText, t.DisagreeText,
		t.Color, t.Deadline, t.StartDate, t.PromotedFrom, t.ProposerName, t.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// Get returns the topic with the given id.
func (r *Registry) Get(id string) (models.Topic, error) {
	row := r.db.QueryRow(`
		SELECT id, title, subtitle, description, detail, agree_text, disagree_text,
		       color, deadline, start_date, promoted_from, proposer_name, created_at
		FROM topic
		WHERE id = $1
	`, id)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return models.Topic{}, ErrTopicNotFound
	}
	if err != nil {
		return models.Topic{}, fmt.Errorf("failed to load topic: %w", err)
	}
	return t, nil
}

// List returns all topics, newest first.
func (r *Registry) List() ([]models.Topic, error) {
	rows, err := r.db.Query(`
		SELECT id, title, subtitle, description, detail, agree_text, disagree_text,
		       color, deadline, start_date, promoted_from, proposer_name, created_at
		FROM topic
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	topics := []models.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read topics: %w", err)
	}
	return topics, nil
}

// Expired reports whether the topic's voting window has closed. The
// deadline date is inclusive through 23:59:59 local time.
func Expired(t models.Topic, now time.Time) bool {
	day, err := time.ParseInLocation(models.DeadlineLayout, t.Deadline, time.Local)
	if err != nil {
		// An unparseable deadline keeps the topic open rather than
		// silently closing it.
		return false
	}
	return !now.Before(day.AddDate(0, 0, 1))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (models.Topic, error) {
	var t models.Topic
	var subtitle, description, detail, agreeText, disagreeText sql.NullString
	var color, startDate, promotedFrom, proposerName sql.NullString
	err := row.Scan(&t.ID, &t.Title, &subtitle, &description, &detail, &agreeText, &disagreeText,
		&color, &t.Deadline, &startDate, &promotedFrom, &proposerName, &t.CreatedAt)
	if err != nil {
		return models.Topic{}, err
	}
	t.Subtitle = subtitle.String
	t.Description = description.String
	t.Detail = detail.String
	t.AgreeText = agreeText.String
	t.DisagreeText = disagreeText.String
	t.Color = color.String
	t.StartDate = startDate.String
	t.PromotedFrom = promotedFrom.String
	t.ProposerName = proposerName.String
	return t, nil
}
