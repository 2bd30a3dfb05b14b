package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	dbfs "github.com/vamoapp/vamo/db"
	"github.com/vamoapp/vamo/internal/ai"
	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/internal/db"
	"github.com/vamoapp/vamo/internal/repository/sqlite"
)

var testDBSeq atomic.Int64

type stubGenerator struct {
	out string
	err error
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	return s.out, s.err
}

// classifyOutput is a well-formed model response for turn tests.
const classifyOutput = `{"reply": "Great work shipping that!", "intent": "feature", "business_update": {"progress_delta": 3, "traction_signal": "Shipped onboarding", "valuation_adjustment": "up"}}`

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		Engine:        config.EngineConfig{Model: "test", Timeout: 5 * time.Second, HistoryLimit: 20},
		Rewards: config.RewardsConfig{
			Schedule:       config.DefaultSchedule(),
			MinRedemption:  50,
			PromptsPerHour: 60,
			OffersPerHour:  5,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, gen ai.Generator) (*httptest.Server, *sqlite.SQLiteRepo) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	d, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	router, err := SetupRoutes(cfg, "test", "now", d, gen)
	if err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv, sqlite.New(d, nil)
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func signup(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signup", "", map[string]string{
		"name":     "Founder",
		"email":    email,
		"password": "hunter22",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", resp.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("signup token missing: %v %s", err, body)
	}
	return out.Token
}

func createProject(t *testing.T, srv *httptest.Server, token, name string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/projects", token, map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create project status = %d, body = %s", resp.StatusCode, body)
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == 0 {
		t.Fatalf("project id missing: %v %s", err, body)
	}
	return out.ID
}
