package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/petition"
)

// stubOTP accepts one fixed code for any phone, so handler tests can
// exercise the submission path without re-deriving HMAC codes.
type stubOTP struct{}

func (stubOTP) SendCode(phone string, now time.Time) (string, error) {
	return "stub-confirmation", nil
}

func (stubOTP) Confirm(confirmationID, phone, code string, now time.Time) error {
	if confirmationID == "stub-confirmation" && code == "123456" {
		return nil
	}
	return petition.ErrCodeMismatch
}

func newSignatureHandler(conn *sql.DB, cfg cliparse.Config) *SignatureHandler {
	engine := petition.NewEngine(conn, stubOTP{}, cfg.DailySignatureCap)
	resolver := identity.NewResolver(cfg.JWTSecret, cfg.AdminTestSecret)
	return NewSignatureHandler(engine, resolver, cfg)
}

// insertSignature writes a signature row directly.
func insertSignature(t *testing.T, conn *sql.DB, name, phone string, createdAt time.Time) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO signature (id, name, type, phone, created_at)
		VALUES ($1, $2, 'individual', $3, $4)
	`, uuid.NewString(), name, phone, createdAt)
	if err != nil {
		t.Fatalf("Failed to insert signature: %v", err)
	}
}

func validSignatureRequest(name, phone string) models.CreateSignatureRequest {
	return models.CreateSignatureRequest{
		ConsentPrivacy: true,
		ConsentTerms:   true,
		Name:           name,
		Phone:          phone,
		ConfirmationID: "stub-confirmation",
		Code:           "123456",
	}
}

func TestSendOTP(t *testing.T) {
	conn := setupTestDB(t)
	cfg := getTestConfig()
	handler := newSignatureHandler(conn, cfg)

	insertSignature(t, conn, "김철수", "01087654321", time.Now())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid phone",
			requestBody:    models.SendOTPRequest{Phone: "010-2345-6789"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad shape",
			requestBody:    models.SendOTPRequest{Phone: "010-1234"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "phone_format",
		},
		{
			name:           "deny-listed",
			requestBody:    models.SendOTPRequest{Phone: "010-1111-1111"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "phone_denied",
		},
		{
			name:           "repeated suffix",
			requestBody:    models.SendOTPRequest{Phone: "010-5000-2222"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "phone_suffix",
		},
		{
			name:           "already signed",
			requestBody:    models.SendOTPRequest{Phone: "010-8765-4321"},
			expectedStatus: http.StatusConflict,
			expectedCode:   "duplicate_phone",
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/signatures/otp", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.SendOTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				var resp models.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if resp.Code != tt.expectedCode {
					t.Errorf("Expected error code %q, got %q", tt.expectedCode, resp.Code)
				}
			}

			if tt.expectedStatus == http.StatusCreated {
				var resp models.SendOTPResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.ConfirmationID == "" {
					t.Error("Expected non-empty confirmation_id")
				}
			}
		})
	}
}

func TestCreateSignature(t *testing.T) {
	conn := setupTestDB(t)
	cfg := getTestConfig()
	handler := newSignatureHandler(conn, cfg)

	insertSignature(t, conn, "김철수", "01087654321", time.Now())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid signature",
			requestBody:    validSignatureRequest("홍길동", "010-2345-6789"),
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing consent",
			requestBody: func() models.CreateSignatureRequest {
				req := validSignatureRequest("이몽룡", "010-3456-7891")
				req.ConsentTerms = false
				return req
			}(),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "consent_required",
		},
		{
			name: "unverified phone",
			requestBody: func() models.CreateSignatureRequest {
				req := validSignatureRequest("이몽룡", "010-3456-7891")
				req.Code = "999999"
				return req
			}(),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "phone_not_verified",
		},
		{
			name:           "duplicate phone",
			requestBody:    validSignatureRequest("성춘향", "010-8765-4321"),
			expectedStatus: http.StatusConflict,
			expectedCode:   "duplicate_phone",
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/signatures", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.CreateSignature(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedCode != "" {
				var resp models.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode error response: %v", err)
				}
				if resp.Code != tt.expectedCode {
					t.Errorf("Expected error code %q, got %q", tt.expectedCode, resp.Code)
				}
			}

			if tt.expectedStatus == http.StatusCreated {
				var resp models.CreateSignatureResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.SignatureID == "" {
					t.Error("Expected non-empty signature_id")
				}
				if resp.Count != 2 {
					t.Errorf("Expected count 2 after admission, got %d", resp.Count)
				}
			}
		})
	}
}

func TestCreateSignatureDailyCap(t *testing.T) {
	conn := setupTestDB(t)
	cfg := getTestConfig()
	cfg.DailySignatureCap = 1
	handler := newSignatureHandler(conn, cfg)

	insertSignature(t, conn, "김철수", "01087654321", time.Now())

	body, _ := json.Marshal(validSignatureRequest("홍길동", "010-2345-6789"))
	req := httptest.NewRequest("POST", "/signatures", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.CreateSignature(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429 at cap, got %d. Body: %s", w.Code, w.Body.String())
	}
	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Code != "rate_limited" {
		t.Errorf("Expected error code rate_limited, got %q", resp.Code)
	}
}

func TestGetSignatureCount(t *testing.T) {
	conn := setupTestDB(t)
	cfg := getTestConfig()
	handler := newSignatureHandler(conn, cfg)

	now := time.Now()
	insertSignature(t, conn, "어제사람", "01023456781", now.AddDate(0, 0, -1))
	for i := 0; i < 3; i++ {
		insertSignature(t, conn, "오늘사람"+string(rune('가'+i)), "0102345679"+string(rune('0'+i)), now)
	}

	req := httptest.NewRequest("GET", "/signatures/count", nil)
	w := httptest.NewRecorder()

	handler.GetSignatureCount(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.SignatureCountResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("Expected count 4, got %d", resp.Count)
	}
	if resp.TodayCount != 3 {
		t.Errorf("Expected today_count 3, got %d", resp.TodayCount)
	}
	if resp.DailyLimitReached {
		t.Error("Expected cap not reached")
	}
	if resp.Formatted != "4" {
		t.Errorf("Expected formatted count, got %q", resp.Formatted)
	}
}

func TestListSignatures(t *testing.T) {
	conn := setupTestDB(t)
	cfg := getTestConfig()
	handler := newSignatureHandler(conn, cfg)

	now := time.Now()
	insertSignature(t, conn, "홍길동", "01023456789", now.Add(-time.Hour))
	insertSignature(t, conn, "김영희", "01087654321", now)

	req := httptest.NewRequest("GET", "/signatures", nil)
	w := httptest.NewRecorder()

	handler.ListSignatures(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	var resp models.SignatureListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Expected count 2, got %d", resp.Count)
	}
	if len(resp.Signatures) != 2 {
		t.Fatalf("Expected 2 signatures, got %d", len(resp.Signatures))
	}
	if resp.Signatures[0].Name != "김영희" {
		t.Errorf("Expected newest first, got %q", resp.Signatures[0].Name)
	}
	for _, sig := range resp.Signatures {
		if sig.MaskedPhone[:3] != "010" || sig.MaskedPhone[4:8] != "****" {
			t.Errorf("Expected masked phone, got %q", sig.MaskedPhone)
		}
	}
}
