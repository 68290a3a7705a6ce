// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/petition"
)

// signatureListLimit caps how many entries the public list returns.
const signatureListLimit = 100

type SignatureHandler struct {
	engine   *petition.Engine
	resolver *identity.Resolver
	cfg      cliparse.Config
}

func NewSignatureHandler(engine *petition.Engine, resolver *identity.Resolver, cfg cliparse.Config) *SignatureHandler {
	return &SignatureHandler{engine: engine, resolver: resolver, cfg: cfg}
}

// ListSignatures handles GET /signatures
// Recent signatures in display form (phones masked) plus the formatted
// public counter.
func (h *SignatureHandler) ListSignatures(w http.ResponseWriter, r *http.Request) {
	sigs, err := h.engine.List(signatureListLimit)
	if err != nil {
		slog.Error("failed to list signatures", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	count, err := h.engine.Count()
	if err != nil {
		slog.Error("failed to count signatures", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SignatureListResponse{
		Signatures: sigs,
		Count:      count,
		Formatted:  humanize.Comma(int64(count)),
	})
}

// GetSignatureCount handles GET /signatures/count
func (h *SignatureHandler) GetSignatureCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.Count()
	if err != nil {
		slog.Error("failed to count signatures", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	reached, today, err := h.engine.CapReached(time.Now())
	if err != nil {
		slog.Error("failed to check daily cap", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SignatureCountResponse{
		Count:             count,
		Formatted:         humanize.Comma(int64(count)),
		TodayCount:        today,
		DailyLimitReached: reached,
	})
}

// SendOTP handles POST /signatures/otp
// Pre-checks (phone shape, deny-list, dedup, daily cap) run before the
// code is issued so a send is never wasted on a doomed submission.
func (h *SignatureHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	confirmationID, err := h.engine.PrepareOTP(req.Phone, time.Now())
	if err != nil {
		h.signatureError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SendOTPResponse{
		ConfirmationID: confirmationID,
	})
}

// CreateSignature handles POST /signatures
func (h *SignatureHandler) CreateSignature(w http.ResponseWriter, r *http.Request) {
	ident, err := h.resolver.Resolve(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
		return
	}

	var req models.CreateSignatureRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sig, err := h.engine.Submit(req, ident, time.Now())
	if err != nil {
		h.signatureError(w, err)
		return
	}

	count, err := h.engine.Count()
	if err != nil {
		slog.Error("failed to count signatures", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("signature admitted",
		"signature_id", sig.ID,
		"type", sig.Type,
		"client_ip", middleware.GetClientIP(r),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSignatureResponse{
		SignatureID: sig.ID,
		Count:       count,
	})
}

// signatureError maps engine failures to HTTP statuses: duplicates are
// conflicts, the daily cap is 429, everything else recoverable is 400.
func (h *SignatureHandler) signatureError(w http.ResponseWriter, err error) {
	var verr *petition.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		switch verr.Code {
		case petition.CodeDuplicatePhone, petition.CodeDuplicateSigner, petition.CodeAlreadySigned:
			status = http.StatusConflict
		case petition.CodeRateLimited:
			status = http.StatusTooManyRequests
		}
		middleware.ErrorCodeResponse(w, status, verr.Code, verr.Message)
		return
	}

	slog.Error("signature operation failed", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}
