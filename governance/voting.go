// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package governance

import (
	"errors"
	"time"

	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/tally"
)

var (
	ErrNotAuthenticated = errors.New("voting requires a signed-in identity")
	ErrAlreadyVoted     = errors.New("already voted on this topic")
	ErrTopicExpired     = errors.New("voting on this topic has closed")
	ErrInvalidChoice    = errors.New("choice must be agree or disagree")
)

// VoteEngine records one vote per (topic, user) and serves tallies.
// Tallies are always recomputed from storage after a write; nothing is
// incremented in place, so an overwrite race cannot over-count.
type VoteEngine struct {
	registry *Registry
	store    *tally.Store
}

func NewVoteEngine(registry *Registry, store *tally.Store) *VoteEngine {
	return &VoteEngine{registry: registry, store: store}
}

// Cast records the caller's vote. Admin-test callers get a fresh
// synthetic key per call, bypassing the uniqueness constraint by
// construction; everyone else needs a resolved identity and can vote
// once per topic.
func (e *VoteEngine) Cast(topicID string, ident models.Identity, choice string, now time.Time) (models.Tally, error) {
	if !models.ValidChoice(choice) {
		return models.Tally{}, ErrInvalidChoice
	}

	topic, err := e.registry.Get(topicID)
	if err != nil {
		return models.Tally{}, err
	}
	if Expired(topic, now) {
		return models.Tally{}, ErrTopicExpired
	}

	scope := tally.Votes(topicID)
	userID, displayName, err := e.voterKey(scope, ident)
	if err != nil {
		return models.Tally{}, err
	}

	err = e.store.Write(scope, tally.Record{
		UserID:      userID,
		Choice:      choice,
		DisplayName: displayName,
		CreatedAt:   now,
	})
	if err != nil {
		return models.Tally{}, err
	}

	return e.store.Tally(scope)
}

// Reset retracts the caller's stored vote and returns the recounted
// tally. Retraction (rather than a client-side marker) keeps storage and
// visible state identical: one voter can never accumulate multiple
// stored votes.
func (e *VoteEngine) Reset(topicID string, ident models.Identity, now time.Time) (models.Tally, error) {
	if ident.Anonymous() {
		return models.Tally{}, ErrNotAuthenticated
	}

	topic, err := e.registry.Get(topicID)
	if err != nil {
		return models.Tally{}, err
	}
	if Expired(topic, now) {
		return models.Tally{}, ErrTopicExpired
	}

	scope := tally.Votes(topicID)
	if err := e.store.Delete(scope, ident.UID); err != nil {
		return models.Tally{}, err
	}
	return e.store.Tally(scope)
}

// View assembles the topic with its derived state for the caller.
func (e *VoteEngine) View(topicID string, ident models.Identity, now time.Time) (models.TopicView, error) {
	topic, err := e.registry.Get(topicID)
	if err != nil {
		return models.TopicView{}, err
	}
	return e.view(topic, ident, now)
}

// ListViews splits all topics into active and expired, each with its
// tally and the caller's vote state.
func (e *VoteEngine) ListViews(ident models.Identity, now time.Time) (active, expired []models.TopicView, err error) {
	topics, err := e.registry.List()
	if err != nil {
		return nil, nil, err
	}

	active = []models.TopicView{}
	expired = []models.TopicView{}
	for _, t := range topics {
		v, err := e.view(t, ident, now)
		if err != nil {
			return nil, nil, err
		}
		if v.Expired {
			expired = append(expired, v)
		} else {
			active = append(active, v)
		}
	}
	return active, expired, nil
}

func (e *VoteEngine) view(topic models.Topic, ident models.Identity, now time.Time) (models.TopicView, error) {
	scope := tally.Votes(topic.ID)
	t, err := e.store.Tally(scope)
	if err != nil {
		return models.TopicView{}, err
	}

	v := models.TopicView{
		Topic:   topic,
		Expired: Expired(topic, now),
		Tally:   t,
	}

	if !ident.Anonymous() && !ident.AdminTest {
		rec, ok, err := e.store.Get(scope, ident.UID)
		if err != nil {
			return models.TopicView{}, err
		}
		if ok {
			v.AlreadyVoted = true
			v.MyVote = rec.Choice
		}
	}
	return v, nil
}

// voterKey resolves the uniqueness key for a write. For admin-test mode
// the key is synthetic and never checked for duplicates; for everyone
// else the key is the user id and a prior record is a duplicate.
func (e *VoteEngine) voterKey(scope tally.Scope, ident models.Identity) (userID, displayName string, err error) {
	if ident.AdminTest {
		name := ident.DisplayName
		if name == "" {
			name = "admin-test"
		}
		return identity.SyntheticVoterID(), name, nil
	}
	if ident.Anonymous() {
		return "", "", ErrNotAuthenticated
	}
	voted, err := e.store.Has(scope, ident.UID)
	if err != nil {
		return "", "", err
	}
	if voted {
		return "", "", ErrAlreadyVoted
	}
	return ident.UID, ident.DisplayName, nil
}
