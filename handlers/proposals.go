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

type ProposalHandler struct {
	proposals *governance.ProposalEngine
	resolver  *identity.Resolver
	cfg       cliparse.Config
}

func NewProposalHandler(proposals *governance.ProposalEngine, resolver *identity.Resolver, cfg cliparse.Config) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, resolver: resolver, cfg: cfg}
}

// ListProposals handles GET /proposals
// Every list load runs the evaluation pass: open proposals are promoted
// or rejected as their support counts and deadlines dictate, then the
// classified lists are returned. Concurrent passes are safe because the
// promotion merge is idempotent and rejection is terminal.
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	ev, err := h.proposals.Evaluate(time.Now())
	if err != nil {
		slog.Error("failed to evaluate proposals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProposalListResponse{
		Active:   ev.Active,
		Rejected: ev.Rejected,
		Promoted: ev.Promoted,
	})
}

// CreateProposal handles POST /proposals
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.ProposerName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "proposer_name is required")
		return
	}

	proposal, err := h.proposals.Create(req, time.Now())
	if err != nil {
		slog.Error("failed to create proposal", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create proposal")
		return
	}

	slog.Info("proposal created", "proposal_id", proposal.ID, "proposer", proposal.ProposerName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateProposalResponse{
		ProposalID: proposal.ID,
	})
}

// SupportProposal handles POST /proposals/{id}/supports
func (h *ProposalHandler) SupportProposal(w http.ResponseWriter, r *http.Request) {
	proposalID := r.PathValue("id")
	if proposalID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "proposal id is required")
		return
	}

	ident, err := h.resolver.Resolve(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
		return
	}

	count, err := h.proposals.Support(proposalID, ident, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, governance.ErrProposalNotFound):
			middleware.ErrorResponse(w, http.StatusNotFound, "Proposal not found")
		case errors.Is(err, governance.ErrProposalClosed):
			middleware.ErrorCodeResponse(w, http.StatusConflict, "proposal_closed", "This proposal is no longer open for support")
		case errors.Is(err, governance.ErrNotAuthenticated):
			middleware.ErrorCodeResponse(w, http.StatusUnauthorized, "not_authenticated", "Sign in to support a proposal")
		case errors.Is(err, governance.ErrAlreadySupported):
			middleware.ErrorCodeResponse(w, http.StatusConflict, "already_supported", "You have already supported this proposal")
		default:
			slog.Error("failed to support proposal", "proposal_id", proposalID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	slog.Info("proposal supported", "proposal_id", proposalID, "support_count", count, "admin_test", ident.AdminTest)

	middleware.JSONResponse(w, http.StatusCreated, models.SupportResponse{
		ProposalID:   proposalID,
		SupportCount: count,
	})
}
