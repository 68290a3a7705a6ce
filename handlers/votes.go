// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/governance"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

type VoteHandler struct {
	votes    *governance.VoteEngine
	resolver *identity.Resolver
	cfg      cliparse.Config
}

func NewVoteHandler(votes *governance.VoteEngine, resolver *identity.Resolver, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{votes: votes, resolver: resolver, cfg: cfg}
}

// CastVote handles POST /topics/{id}/votes
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")
	if topicID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "topic id is required")
		return
	}

	ident, err := h.resolver.Resolve(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tally, err := h.votes.Cast(topicID, ident, req.Choice, time.Now())
	if err != nil {
		h.voteError(w, topicID, err)
		return
	}

	slog.Info("vote cast", "topic_id", topicID, "choice", req.Choice, "admin_test", ident.AdminTest)

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		TopicID: topicID,
		Choice:  req.Choice,
		Tally:   tally,
	})
}

// ResetVote handles DELETE /topics/{id}/votes
// True retraction: the stored vote is deleted and the tally recounted.
func (h *VoteHandler) ResetVote(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")
	if topicID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "topic id is required")
		return
	}

	ident, err := h.resolver.Resolve(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
		return
	}

	tally, err := h.votes.Reset(topicID, ident, time.Now())
	if err != nil {
		h.voteError(w, topicID, err)
		return
	}

	slog.Info("vote reset", "topic_id", topicID)

	middleware.JSONResponse(w, http.StatusOK, models.ResetVoteResponse{
		TopicID: topicID,
		Tally:   tally,
	})
}

func (h *VoteHandler) voteError(w http.ResponseWriter, topicID string, err error) {
	switch {
	case errors.Is(err, governance.ErrTopicNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Topic not found")
	case errors.Is(err, governance.ErrInvalidChoice):
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice must be agree or disagree")
	case errors.Is(err, governance.ErrNotAuthenticated):
		middleware.ErrorCodeResponse(w, http.StatusUnauthorized, "not_authenticated", "Sign in to vote")
	case errors.Is(err, governance.ErrAlreadyVoted):
		middleware.ErrorCodeResponse(w, http.StatusConflict, "already_voted", "You have already voted on this topic")
	case errors.Is(err, governance.ErrTopicExpired):
		middleware.ErrorCodeResponse(w, http.StatusConflict, "topic_expired", "Voting on this topic has closed")
	default:
		slog.Error("vote operation failed", "topic_id", topicID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
