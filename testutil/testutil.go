// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/db"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/models"
)

// Test secrets. Fixed values so handlers and helpers agree on signing.
const (
	TestJWTSecret       = "test-jwt-secret"
	TestOTPSecret       = "test-otp-secret"
	TestAdminTestSecret = "test-admin-secret"
)

// SetupTestDB creates a fresh sqlite database with the full schema.
// Each test gets its own file under t.TempDir, so tests never share
// state and cleanup is automatic.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "agora_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The sqlite driver serializes writes itself; a single connection
	// avoids table-lock errors from concurrent test requests.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3327,
		DatabaseType:       "sqlite",
		JWTSecret:          TestJWTSecret,
		OTPSecret:          TestOTPSecret,
		AdminTestSecret:    TestAdminTestSecret,
		MinSupports:        cliparse.DefaultMinSupports,
		ProposalWindowDays: cliparse.DefaultProposalWindowDays,
		DailySignatureCap:  cliparse.DefaultDailySignatureCap,
	}
}

// CreateTestTopic inserts a topic with the given deadline and returns
// its ID. The deadline is a YYYY-MM-DD date; pass a past date for an
// expired topic.
func CreateTestTopic(t *testing.T, conn *sql.DB, title, deadline string) string {
	t.Helper()

	topicID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO topic (id, title, deadline, created_at)
		VALUES ($1, $2, $3, $4)
	`, topicID, title, deadline, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test topic: %v", err)
	}

	return topicID
}

// CreateTestProposal inserts an open proposal created at the given time
// and returns its ID.
func CreateTestProposal(t *testing.T, conn *sql.DB, title string, createdAt time.Time) string {
	t.Helper()

	proposalID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO proposal (id, title, proposer_name, status, created_at)
		VALUES ($1, $2, 'TestProposer', $3, $4)
	`, proposalID, title, models.ProposalStatusOpen, createdAt)
	if err != nil {
		t.Fatalf("Failed to create test proposal: %v", err)
	}

	return proposalID
}

// AddTestSupports writes n distinct support records for a proposal.
func AddTestSupports(t *testing.T, conn *sql.DB, proposalID string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := conn.Exec(`
			INSERT INTO tally_record (scope_kind, scope_id, user_id, choice, display_name, created_at)
			VALUES ('supports', $1, $2, 'agree', 'Supporter', $3)
		`, proposalID, uuid.NewString(), time.Now())
		if err != nil {
			t.Fatalf("Failed to create test support: %v", err)
		}
	}
}

// CreateTestSignature inserts a signature row directly, bypassing the
// validation chain, and returns its ID.
func CreateTestSignature(t *testing.T, conn *sql.DB, name, phone string, createdAt time.Time) string {
	t.Helper()

	sigID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO signature (id, name, type, phone, created_at)
		VALUES ($1, $2, 'individual', $3, $4)
	`, sigID, name, phone, createdAt)
	if err != nil {
		t.Fatalf("Failed to create test signature: %v", err)
	}

	return sigID
}

// SignTestToken mints a session token for a test user, signed with the
// test JWT secret.
func SignTestToken(t *testing.T, uid, displayName string) string {
	t.Helper()

	token, err := identity.SignToken(models.Identity{
		UID:         uid,
		DisplayName: displayName,
		Provider:    "google",
	}, TestJWTSecret)
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}

	return token
}

// AuthHeader returns a headers map carrying a Bearer token for uid.
func AuthHeader(t *testing.T, uid, displayName string) map[string]string {
	t.Helper()
	return map[string]string{
		"Authorization": "Bearer " + SignTestToken(t, uid, displayName),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
