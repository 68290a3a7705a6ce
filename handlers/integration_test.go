// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/agora/governance"
	"github.com/danielhkuo/agora/identity"
	"github.com/danielhkuo/agora/models"
	"github.com/danielhkuo/agora/petition"
	"github.com/danielhkuo/agora/tally"
	"github.com/danielhkuo/agora/testutil"
)

// TestProposalToVoteWorkflow tests the complete governance journey:
// 1. A citizen files a proposal
// 2. Supporters push it past the promotion threshold
// 3. Listing proposals runs the lifecycle pass and promotes it
// 4. The promoted topic accepts votes
// 5. Duplicate votes are refused
// 6. Results report the tally
// 7. A voter retracts and revotes
func TestProposalToVoteWorkflow(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	registry := governance.NewRegistry(conn)
	store := tally.NewStore(conn)
	votes := governance.NewVoteEngine(registry, store)
	proposals := governance.NewProposalEngine(conn, registry, store, governance.Policy{
		MinSupports: cfg.MinSupports,
		WindowDays:  cfg.ProposalWindowDays,
	})
	resolver := identity.NewResolver(cfg.JWTSecret, cfg.AdminTestSecret)

	topicHandler := NewTopicHandler(registry, votes, resolver, cfg)
	voteHandler := NewVoteHandler(votes, resolver, cfg)
	proposalHandler := NewProposalHandler(proposals, resolver, cfg)

	// Step 1: File a proposal.
	body, _ := json.Marshal(models.CreateProposalRequest{
		Title:        "Publish all council minutes",
		ProposerName: "홍길동",
	})
	req := httptest.NewRequest("POST", "/proposals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	proposalHandler.CreateProposal(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create proposal failed: %d - %s", w.Code, w.Body.String())
	}
	var createResp models.CreateProposalResponse
	json.NewDecoder(w.Body).Decode(&createResp)
	proposalID := createResp.ProposalID
	t.Logf("Step 1 - Created proposal: %s", proposalID)

	// Step 2: Supporters sign on up to the threshold.
	for i := 0; i < cfg.MinSupports; i++ {
		user := "supporter-" + string(rune('a'+i))
		req := httptest.NewRequest("POST", "/proposals/"+proposalID+"/supports", nil)
		req.SetPathValue("id", proposalID)
		req.Header.Set("Authorization", bearerToken(t, cfg, user, user))
		w := httptest.NewRecorder()
		proposalHandler.SupportProposal(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Support %d failed: %d - %s", i+1, w.Code, w.Body.String())
		}
	}
	t.Logf("Step 2 - Recorded %d supports", cfg.MinSupports)

	// Step 3: Listing runs the lifecycle pass and promotes.
	req = httptest.NewRequest("GET", "/proposals", nil)
	w = httptest.NewRecorder()
	proposalHandler.ListProposals(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - List proposals failed: %d - %s", w.Code, w.Body.String())
	}
	var listResp models.ProposalListResponse
	json.NewDecoder(w.Body).Decode(&listResp)
	if len(listResp.Promoted) != 1 || listResp.Promoted[0].ID != proposalID {
		t.Fatalf("Step 3 - Expected proposal promoted, got %+v", listResp)
	}
	t.Logf("Step 3 - Promoted to topic: %s", listResp.Promoted[0].ID)

	// Step 4: Vote on the promoted topic.
	voterAuth := bearerToken(t, cfg, "voter-1", "Voter")
	body, _ = json.Marshal(models.CastVoteRequest{Choice: "agree"})
	req = httptest.NewRequest("POST", "/topics/"+proposalID+"/votes", bytes.NewReader(body))
	req.SetPathValue("id", proposalID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", voterAuth)
	w = httptest.NewRecorder()
	voteHandler.CastVote(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 4 - Cast vote failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 5: The same voter cannot vote twice.
	body, _ = json.Marshal(models.CastVoteRequest{Choice: "disagree"})
	req = httptest.NewRequest("POST", "/topics/"+proposalID+"/votes", bytes.NewReader(body))
	req.SetPathValue("id", proposalID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", voterAuth)
	w = httptest.NewRecorder()
	voteHandler.CastVote(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Step 5 - Expected duplicate vote conflict, got: %d - %s", w.Code, w.Body.String())
	}

	// Step 6: Results carry the tally.
	req = httptest.NewRequest("GET", "/topics/"+proposalID+"/results", nil)
	req.SetPathValue("id", proposalID)
	w = httptest.NewRecorder()
	topicHandler.GetResults(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Results failed: %d - %s", w.Code, w.Body.String())
	}
	var results struct {
		Tally    models.Tally `json:"tally"`
		Majority string       `json:"majority"`
	}
	json.NewDecoder(w.Body).Decode(&results)
	if results.Tally.Agree != 1 || results.Majority != "agree" {
		t.Fatalf("Step 6 - Expected 1/0 agree majority, got %+v", results)
	}

	// Step 7: Retract, then vote the other way.
	req = httptest.NewRequest("DELETE", "/topics/"+proposalID+"/votes", nil)
	req.SetPathValue("id", proposalID)
	req.Header.Set("Authorization", voterAuth)
	w = httptest.NewRecorder()
	voteHandler.ResetVote(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Reset failed: %d - %s", w.Code, w.Body.String())
	}

	body, _ = json.Marshal(models.CastVoteRequest{Choice: "disagree"})
	req = httptest.NewRequest("POST", "/topics/"+proposalID+"/votes", bytes.NewReader(body))
	req.SetPathValue("id", proposalID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", voterAuth)
	w = httptest.NewRecorder()
	voteHandler.CastVote(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 7 - Revote failed: %d - %s", w.Code, w.Body.String())
	}
	var voteResp models.CastVoteResponse
	json.NewDecoder(w.Body).Decode(&voteResp)
	if voteResp.Tally.Agree != 0 || voteResp.Tally.Disagree != 1 {
		t.Fatalf("Step 7 - Expected tally 0/1 after revote, got %+v", voteResp.Tally)
	}
}

// TestSignatureWorkflow tests the petition journey: OTP request,
// verified submission, counter update, public listing, and dedup.
func TestSignatureWorkflow(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	engine := petition.NewEngine(conn, stubOTP{}, cfg.DailySignatureCap)
	resolver := identity.NewResolver(cfg.JWTSecret, cfg.AdminTestSecret)
	handler := NewSignatureHandler(engine, resolver, cfg)

	// Step 1: Request an OTP.
	body, _ := json.Marshal(models.SendOTPRequest{Phone: "010-2345-6789"})
	req := httptest.NewRequest("POST", "/signatures/otp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.SendOTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Send OTP failed: %d - %s", w.Code, w.Body.String())
	}
	var otpResp models.SendOTPResponse
	json.NewDecoder(w.Body).Decode(&otpResp)

	// Step 2: Submit the verified signature.
	sigReq := models.CreateSignatureRequest{
		ConsentPrivacy: true,
		ConsentTerms:   true,
		Name:           "홍길동",
		Phone:          "010-2345-6789",
		ConfirmationID: otpResp.ConfirmationID,
		Code:           "123456",
	}
	body, _ = json.Marshal(sigReq)
	req = httptest.NewRequest("POST", "/signatures", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.CreateSignature(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - Create signature failed: %d - %s", w.Code, w.Body.String())
	}
	var sigResp models.CreateSignatureResponse
	json.NewDecoder(w.Body).Decode(&sigResp)
	if sigResp.Count != 1 {
		t.Fatalf("Step 2 - Expected count 1, got %d", sigResp.Count)
	}

	// Step 3: The public list shows the signature with a masked phone.
	req = httptest.NewRequest("GET", "/signatures", nil)
	w = httptest.NewRecorder()
	handler.ListSignatures(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - List failed: %d - %s", w.Code, w.Body.String())
	}
	var listResp models.SignatureListResponse
	json.NewDecoder(w.Body).Decode(&listResp)
	if len(listResp.Signatures) != 1 {
		t.Fatalf("Step 3 - Expected 1 signature, got %d", len(listResp.Signatures))
	}
	if listResp.Signatures[0].MaskedPhone != "010-****-6789" {
		t.Fatalf("Step 3 - Expected masked phone, got %q", listResp.Signatures[0].MaskedPhone)
	}

	// Step 4: The same phone, differently formatted, cannot sign again.
	sigReq.Name = "김영희"
	sigReq.Phone = "01023456789"
	body, _ = json.Marshal(sigReq)
	req = httptest.NewRequest("POST", "/signatures", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.CreateSignature(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Step 4 - Expected duplicate conflict, got: %d - %s", w.Code, w.Body.String())
	}
}
