// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package governance

import (
	"testing"
	"time"

	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/testutil"
)

func TestEnsureSeedTopics(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	registry := NewRegistry(conn)
	now := time.Now()

	if err := registry.EnsureSeedTopics(now); err != nil {
		t.Fatalf("EnsureSeedTopics failed: %v", err)
	}

	topics, err := registry.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(topics) != len(seedTopics) {
		t.Fatalf("Expected %d seed topics, got %d", len(seedTopics), len(topics))
	}

	// Running the seed again must not duplicate or reset anything.
	if err := registry.EnsureSeedTopics(now.Add(time.Hour)); err != nil {
		t.Fatalf("Second EnsureSeedTopics failed: %v", err)
	}
	topics, err = registry.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(topics) != len(seedTopics) {
		t.Errorf("Expected seeding to be idempotent, got %d topics", len(topics))
	}
}

func TestRegistryAddIsIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	registry := NewRegistry(conn)

	topic := models.Topic{
		ID:        "topic-1",
		Title:     "First title",
		Deadline:  "2026-12-31",
		CreatedAt: time.Now(),
	}

	added, err := registry.Add(topic)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !added {
		t.Error("Expected first add to insert")
	}

	// Same id again, even with different content: no second row, no
	// overwrite.
	topic.Title = "Changed title"
	added, err = registry.Add(topic)
	if err != nil {
		t.Fatalf("Second add failed: %v", err)
	}
	if added {
		t.Error("Expected second add to be a no-op")
	}

	got, err := registry.Get("topic-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "First title" {
		t.Errorf("Expected original title preserved, got %q", got.Title)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	registry := NewRegistry(conn)

	_, err := registry.Get("missing")
	if err != ErrTopicNotFound {
		t.Errorf("Expected ErrTopicNotFound, got %v", err)
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		deadline string
		expired  bool
	}{
		{"future deadline", "2025-12-31", false},
		{"past deadline", "2025-01-31", true},
		{"deadline today is inclusive", "2025-06-15", false},
		{"deadline yesterday", "2025-06-14", true},
		{"unparseable deadline stays open", "soon", false},
		{"empty deadline stays open", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic := models.Topic{ID: "t", Deadline: tt.deadline}
			if got := Expired(topic, now); got != tt.expired {
				t.Errorf("Expired(deadline=%q) = %v, want %v", tt.deadline, got, tt.expired)
			}
		})
	}
}

func TestExpiredBoundary(t *testing.T) {
	topic := models.Topic{ID: "t", Deadline: "2025-06-15"}

	// Last moment of the deadline day: still open.
	lastMoment := time.Date(2025, 6, 15, 23, 59, 59, 0, time.Local)
	if Expired(topic, lastMoment) {
		t.Error("Expected topic open at 23:59:59 on the deadline day")
	}

	// First moment after: closed.
	midnight := time.Date(2025, 6, 16, 0, 0, 0, 0, time.Local)
	if !Expired(topic, midnight) {
		t.Error("Expected topic expired at midnight after the deadline")
	}
}
