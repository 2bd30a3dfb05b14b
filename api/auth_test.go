package api

import (
	"net/http"
	"testing"
)

func TestSignupAndSignin(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubGenerator{out: classifyOutput})

	token := signup(t, srv, "founder@example.com")
	if token == "" {
		t.Fatal("empty token")
	}

	// signup creates the profile alongside the user
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/v1/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signin", "", map[string]string{
		"email":    "founder@example.com",
		"password": "hunter22",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/auth/signin", "", map[string]string{
		"email":    "founder@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), &stubGenerator{out: classifyOutput})

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/v1/turns"},
		{http.MethodGet, "/v1/projects"},
		{http.MethodPost, "/v1/rewards"},
		{http.MethodGet, "/v1/activities"},
	} {
		resp, _ := doJSON(t, route.method, srv.URL+route.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", route.method, route.path, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/turns", "not-a-token", map[string]any{})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", resp.StatusCode)
	}
}
