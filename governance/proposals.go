// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package governance

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/tally"
)

var (
	ErrProposalNotFound = errors.New("proposal not found")
	ErrProposalClosed   = errors.New("proposal is no longer open for support")
	ErrAlreadySupported = errors.New("already supported this proposal")
)

// PromotedVoteWindowDays is the voting window granted to a topic created
// by promotion, counted from the day the promotion fires.
const PromotedVoteWindowDays = 30

// PromotedTopicColor is the display tag for promoted topics.
const PromotedTopicColor = "purple"

// Policy is the temporal/threshold policy for the proposal lifecycle.
type Policy struct {
	MinSupports int // supports needed to promote
	WindowDays  int // days before an unsupported proposal is rejected
}

// Evaluation is the outcome of one lifecycle pass: still-pending
// proposals annotated for display, the full rejected list (newly
// classified plus passthrough of previously-rejected), and the topics
// newly merged into the registry by promotion.
type Evaluation struct {
	Active   []models.PendingProposal
	Rejected []models.Proposal
	Promoted []models.Topic
}

// ProposalEngine owns the proposal lifecycle: creation, support
// accumulation, and the promote/reject evaluation pass.
type ProposalEngine struct {
	db       *sql.DB
	registry *Registry
	store    *tally.Store
	policy   Policy
}

func NewProposalEngine(db *sql.DB, registry *Registry, store *tally.Store, policy Policy) *ProposalEngine {
	return &ProposalEngine{db: db, registry: registry, store: store, policy: policy}
}

// Create stores a new citizen-submitted proposal with status "proposal".
func (e *ProposalEngine) Create(req models.CreateProposalRequest, now time.Time) (models.Proposal, error) {
	p := models.Proposal{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		Detail:       req.Detail,
		ProposerName: req.ProposerName,
		Status:       models.ProposalStatusOpen,
		CreatedAt:    now,
	}

	_, err := e.db.Exec(`
		INSERT INTO proposal (id, title, subtitle, description, detail, proposer_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Title, p.Subtitle, p.Description, p.Detail, p.ProposerName, p.Status, p.CreatedAt)
	if err != nil {
		return models.Proposal{}, fmt.Errorf("failed to insert proposal: %w", err)
	}
	return p, nil
}

// Get returns the proposal with the given id.
func (e *ProposalEngine) Get(id string) (models.Proposal, error) {
	row := e.db.QueryRow(`
		SELECT id, title, subtitle, description, detail, proposer_name, status,
		       created_at, promoted_at, rejected_at, rejected_reason
		FROM proposal
		WHERE id = $1
	`, id)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return models.Proposal{}, ErrProposalNotFound
	}
	if err != nil {
		return models.Proposal{}, fmt.Errorf("failed to load proposal: %w", err)
	}
	return p, nil
}

// Support records one user's endorsement of an open proposal and returns
// the new support count. Uniqueness and the admin-test bypass follow the
// same rules as votes.
func (e *ProposalEngine) Support(proposalID string, ident models.Identity, now time.Time) (int, error) {
	p, err := e.Get(proposalID)
	if err != nil {
		return 0, err
	}
	if p.Status != models.ProposalStatusOpen {
		return 0, ErrProposalClosed
	}

	scope := tally.Supports(proposalID)

	var userID, displayName string
	if ident.AdminTest {
		userID = identity.SyntheticVoterID()
		displayName = "admin-test"
	} else {
		if ident.Anonymous() {
			return 0, ErrNotAuthenticated
		}
		supported, err := e.store.Has(scope, ident.UID)
		if err != nil {
			return 0, err
		}
		if supported {
			return 0, ErrAlreadySupported
		}
		userID = ident.UID
		displayName = ident.DisplayName
	}

	err = e.store.Write(scope, tally.Record{
		UserID:      userID,
		Choice:      models.ChoiceAgree,
		DisplayName: displayName,
		CreatedAt:   now,
	})
	if err != nil {
		return 0, err
	}
	return e.store.Count(scope)
}

// Evaluate classifies every open proposal as promoted, rejected, or
// still pending, applies the side effects, and returns the three
// disjoint lists. Promotion is checked before rejection: support
// sufficiency wins over elapsed time even when both hold. A failed write
// for one proposal is logged and does not block the others; the returned
// classification reflects the intended transition and the next pass will
// retry anything that did not land.
func (e *ProposalEngine) Evaluate(now time.Time) (Evaluation, error) {
	proposals, err := e.listProposals()
	if err != nil {
		return Evaluation{}, err
	}

	counts, err := e.store.CountByScope(tally.KindSupports)
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{
		Active:   []models.PendingProposal{},
		Rejected: []models.Proposal{},
		Promoted: []models.Topic{},
	}

	for _, p := range proposals {
		switch p.Status {
		case models.ProposalStatusRejected:
			// Passthrough: terminal, reason already derived.
			ev.Rejected = append(ev.Rejected, p)
			continue
		case models.ProposalStatusPromoted:
			// Terminal; its topic already lives in the registry.
			continue
		}

		supportCount := counts[p.ID]
		daysPassed := int(now.Sub(p.CreatedAt).Hours() / 24)

		switch {
		case supportCount >= e.policy.MinSupports:
			topic := e.promote(p, now)
			ev.Promoted = append(ev.Promoted, topic)

		case daysPassed >= e.policy.WindowDays:
			reason := fmt.Sprintf("%d-day window; %d/%d", e.policy.WindowDays, supportCount, e.policy.MinSupports)
			ev.Rejected = append(ev.Rejected, e.reject(p, reason, now))

		default:
			ev.Active = append(ev.Active, models.PendingProposal{
				Proposal:      p,
				SupportCount:  supportCount,
				DaysRemaining: e.policy.WindowDays - daysPassed,
			})
		}
	}

	return ev, nil
}

// promote merges the proposal into the topic registry and marks it
// promoted. Both writes are best-effort: failures are logged and the
// in-memory classification stands for this pass.
func (e *ProposalEngine) promote(p models.Proposal, now time.Time) models.Topic {
	topic := TopicFromProposal(p, now)

	if _, err := e.registry.Add(topic); err != nil {
		slog.Warn("failed to merge promoted topic", "proposal_id", p.ID, "error", err)
	}

	// Guarding on status keeps promoted_at from re-firing if two
	// evaluation passes race on the same proposal.
	_, err := e.db.Exec(`
		UPDATE proposal
		SET status = $1, promoted_at = $2
		WHERE id = $3 AND status = $4
	`, models.ProposalStatusPromoted, now, p.ID, models.ProposalStatusOpen)
	if err != nil {
		slog.Warn("failed to mark proposal promoted", "proposal_id", p.ID, "error", err)
	} else {
		slog.Info("proposal promoted", "proposal_id", p.ID, "topic_id", topic.ID)
	}

	return topic
}

func (e *ProposalEngine) reject(p models.Proposal, reason string, now time.Time) models.Proposal {
	_, err := e.db.Exec(`
		UPDATE proposal
		SET status = $1, rejected_reason = $2, rejected_at = $3
		WHERE id = $4 AND status = $5
	`, models.ProposalStatusRejected, reason, now, p.ID, models.ProposalStatusOpen)
	if err != nil {
		slog.Warn("failed to mark proposal rejected", "proposal_id", p.ID, "error", err)
	} else {
		slog.Info("proposal rejected", "proposal_id", p.ID, "reason", reason)
	}

	p.Status = models.ProposalStatusRejected
	p.RejectedReason = reason
	rejectedAt := now
	p.RejectedAt = &rejectedAt
	return p
}

// TopicFromProposal synthesizes the vote topic a promotion creates. The
// topic id is the proposal id: one shared identifier addresses the
// proposal document, the topic, and the topic's vote scope.
func TopicFromProposal(p models.Proposal, now time.Time) models.Topic {
	agreeText := p.Title + ": agree"
	disagreeText := p.Title + ": disagree"
	return models.Topic{
		ID:           p.ID,
		Title:        p.Title,
		Subtitle:     p.Subtitle,
		Description:  p.Description,
		Detail:       p.Detail,
		AgreeText:    agreeText,
		DisagreeText: disagreeText,
		Color:        PromotedTopicColor,
		Deadline:     now.AddDate(0, 0, PromotedVoteWindowDays).Format(models.DeadlineLayout),
		StartDate:    now.Format(models.DeadlineLayout),
		PromotedFrom: models.PromotedFromProposal,
		ProposerName: p.ProposerName,
		CreatedAt:    now,
	}
}

func (e *ProposalEngine) listProposals() ([]models.Proposal, error) {
	rows, err := e.db.Query(`
		SELECT id, title, subtitle, description, detail, proposer_name, status,
		       created_at, promoted_at, rejected_at, rejected_reason
		FROM proposal
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proposals: %w", err)
	}
	return proposals, nil
}

func scanProposal(row rowScanner) (models.Proposal, error) {
	var p models.Proposal
	var subtitle, description, detail, rejectedReason sql.NullString
	var promotedAt, rejectedAt sql.NullTime
	err := row.Scan(&p.ID, &p.Title, &subtitle, &description, &detail, &p.ProposerName, &p.Status,
		&p.CreatedAt, &promotedAt, &rejectedAt, &rejectedReason)
	if err != nil {
		return models.Proposal{}, err
	}
	p.Subtitle = subtitle.String
	p.Description = description.String
	p.Detail = detail.String
	p.RejectedReason = rejectedReason.String
	if promotedAt.Valid {
		t := promotedAt.Time
		p.PromotedAt = &t
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		p.RejectedAt = &t
	}
	return p, nil
}
