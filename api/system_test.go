package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealthAndVersion(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubGenerator{out: classifyOutput})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var health struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if health.Status != "ok" || health.Service != "vamo" {
		t.Errorf("health = %+v", health)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/version", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("version status = %d", resp.StatusCode)
	}
	var ver struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &ver); err != nil {
		t.Fatalf("unmarshal version: %v", err)
	}
	if ver.Version != "test" {
		t.Errorf("version = %q, want test", ver.Version)
	}
}
