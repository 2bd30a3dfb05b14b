package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestTurnLifecycle(t *testing.T) {
	srv, store := newTestServer(t, testConfig(), &stubGenerator{out: classifyOutput})
	token := signup(t, srv, "founder@example.com")
	projectID := createProject(t, srv, token, "Acme")

	// submit
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": projectID,
		"message":   "We shipped onboarding today",
		"tag":       "feature",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", resp.StatusCode, body)
	}
	var submit struct {
		Message struct {
			ID      int64  `json:"id"`
			Content string `json:"content"`
		} `json:"message"`
		PineapplesEarned int64  `json:"pineapplesEarned"`
		Intent           string `json:"intent"`
	}
	if err := json.Unmarshal(body, &submit); err != nil {
		t.Fatalf("unmarshal submit: %v", err)
	}
	if submit.PineapplesEarned != 2 {
		t.Errorf("earned = %d, want 2", submit.PineapplesEarned)
	}
	if submit.Intent != "feature" {
		t.Errorf("intent = %q, want feature", submit.Intent)
	}
	if submit.Message.Content != "Great work shipping that!" {
		t.Errorf("assistant reply = %q", submit.Message.Content)
	}

	// balance reflects the reward
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	var profile struct {
		PineappleBalance int64 `json:"pineapple_balance"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if profile.PineappleBalance != 2 {
		t.Errorf("balance = %d, want 2", profile.PineappleBalance)
	}

	// find the user message id for edit/delete
	userMsgID := submit.Message.ID - 1
	msgs, err := store.ListRecent(t.Context(), projectID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	for _, m := range msgs {
		if m.Role == "user" {
			userMsgID = m.ID
		}
	}

	// edit: rewritten, never rewarded
	resp, body = doJSON(t, http.MethodPut, fmt.Sprintf("%s/v1/turns/%d", srv.URL, userMsgID), token, map[string]any{
		"message": "Actually we shipped onboarding and billing",
		"tag":     "feature",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d, body = %s", resp.StatusCode, body)
	}
	var edit struct {
		Success          bool  `json:"success"`
		PineapplesEarned int64 `json:"pineapplesEarned"`
		Message          struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &edit); err != nil {
		t.Fatalf("unmarshal edit: %v", err)
	}
	if !edit.Success || edit.PineapplesEarned != 0 {
		t.Errorf("edit = %+v, want success with zero earned", edit)
	}

	// delete: reverses the turn
	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/v1/turns/%d", srv.URL, userMsgID), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if profile.PineappleBalance != 0 {
		t.Errorf("balance after delete = %d, want 0", profile.PineappleBalance)
	}

	// deleting again finds nothing
	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/v1/turns/%d", srv.URL, userMsgID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitValidation(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubGenerator{out: classifyOutput})
	token := signup(t, srv, "founder@example.com")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": 1,
		"message":   "",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": 9999,
		"message":   "hello",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown project status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rewards.PromptsPerHour = 1
	srv, _ := newTestServer(t, cfg, &stubGenerator{out: classifyOutput})
	token := signup(t, srv, "founder@example.com")
	projectID := createProject(t, srv, token, "Acme")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": projectID,
		"message":   "first update",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first submit status = %d, body = %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": projectID,
		"message":   "second update",
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d, want 429", resp.StatusCode)
	}
}

// A model outage degrades to the fallback reply; the turn still succeeds and
// still rewards.
func TestSubmitSurvivesModelOutage(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubGenerator{err: fmt.Errorf("connection refused")})
	token := signup(t, srv, "founder@example.com")
	projectID := createProject(t, srv, token, "Acme")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/turns", token, map[string]any{
		"projectId": projectID,
		"message":   "We shipped onboarding today",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d, body = %s", resp.StatusCode, body)
	}
	var submit struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PineapplesEarned int64 `json:"pineapplesEarned"`
		Intent           string `json:"intent"`
	}
	if err := json.Unmarshal(body, &submit); err != nil {
		t.Fatalf("unmarshal submit: %v", err)
	}
	if submit.Message.Content == "" {
		t.Error("fallback reply missing")
	}
	if submit.Intent != "general" {
		t.Errorf("intent = %q, want general", submit.Intent)
	}
	if submit.PineapplesEarned != 1 {
		t.Errorf("earned = %d, want 1", submit.PineapplesEarned)
	}
}
