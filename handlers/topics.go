// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/hmac"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/governance"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

type TopicHandler struct {
	registry *governance.Registry
	votes    *governance.VoteEngine
	resolver *identity.Resolver
	cfg      cliparse.Config
}

func NewTopicHandler(registry *governance.Registry, votes *governance.VoteEngine, resolver *identity.Resolver, cfg cliparse.Config) *TopicHandler {
	return &TopicHandler{registry: registry, votes: votes, resolver: resolver, cfg: cfg}
}

// ListTopics handles GET /topics
// Splits the registry into active and expired by deadline; each entry
// carries its tally and, for signed-in callers, their own vote state.
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ident, err := h.resolver.Resolve(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid auth token")
		return
	}

	active, expired, err := h.votes.ListViews(ident, time.Now())
	if err != nil {
		slog.Error("failed to list topics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TopicListResponse{
		Active:  active,
		Expired: expired,
	})
}

// GetTopic handles GET /topics/{id}
func (h *TopicHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.votes.View(topicID, ident, time.Now())
	if errors.Is(err, governance.ErrTopicNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Topic not found")
		return
	}
	if err != nil {
		slog.Error("failed to load topic", "topic_id", topicID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetResults handles GET /topics/{id}/results
// Read-only tally with the display percentage and raw-count majority.
// Stays available after the topic expires.
func (h *TopicHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	topicID := r.PathValue("id")
	if topicID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "topic id is required")
		return
	}

	view, err := h.votes.View(topicID, models.Identity{}, time.Now())
	if errors.Is(err, governance.ErrTopicNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Topic not found")
		return
	}
	if err != nil {
		slog.Error("failed to load topic results", "topic_id", topicID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"topic_id":      view.ID,
		"title":         view.Title,
		"expired":       view.Expired,
		"tally":         view.Tally,
		"agree_percent": view.Tally.AgreePercent(),
		"majority":      view.Tally.Majority(),
	})
}

// CreateTopic handles POST /topics
// Admin topic creation, gated by the shared admin secret.
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	if !h.validAdminKey(r) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateTopicRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if _, err := time.ParseInLocation(models.DeadlineLayout, req.Deadline, time.Local); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "deadline must be a YYYY-MM-DD date")
		return
	}

	topic := models.Topic{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		Detail:       req.Detail,
		AgreeText:    req.AgreeText,
		DisagreeText: req.DisagreeText,
		Color:        req.Color,
		Deadline:     req.Deadline,
		CreatedAt:    time.Now(),
	}

	added, err := h.registry.Add(topic)
	if err != nil {
		slog.Error("failed to create topic", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create topic")
		return
	}
	if !added {
		middleware.ErrorResponse(w, http.StatusConflict, "Topic already exists")
		return
	}

	slog.Info("topic created", "topic_id", topic.ID, "title", topic.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTopicResponse{
		TopicID: topic.ID,
	})
}

func (h *TopicHandler) validAdminKey(r *http.Request) bool {
	if h.cfg.AdminTestSecret == "" {
		return false
	}
	given := r.Header.Get("X-Admin-Key")
	return given != "" && hmac.Equal([]byte(given), []byte(h.cfg.AdminTestSecret))
}
