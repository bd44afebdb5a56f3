//go:build integration

package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"asset-inventory-api/internal"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/logging"
	"asset-inventory-api/internal/testutil"
)

const integrationSecret = "supersecretkeyforintegrationtestingonly"

// newServer builds a server over the Postgres test database.
func newServer(t *testing.T, tweak func(*config.Config)) *internal.Server {
	t.Helper()
	db := testutil.NewPostgresDB(t)

	cfg := config.Defaults()
	cfg.SecretKey = integrationSecret
	cfg.ImportMapping = ""
	if tweak != nil {
		tweak(cfg)
	}
	srv, err := internal.NewServer(cfg, db, logging.Discard())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return srv
}

func request(srv *internal.Server, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	srv := newServer(t, nil)

	w := request(srv, "GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", w.Body.String())
	}

	w = request(srv, "GET", "/dbping", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected dbping 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	srv := newServer(t, func(cfg *config.Config) { cfg.RequireAuth = true })

	w := request(srv, "GET", "/hw-asset", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	w = request(srv, "GET", "/hw-asset", "", "invalid-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for invalid token, got %d", w.Code)
	}
}

func TestAccountFlow(t *testing.T) {
	srv := newServer(t, func(cfg *config.Config) { cfg.RequireAuth = true })
	creds := `{"username":"somchai","password":"password1"}`

	w := request(srv, "POST", "/register", creds, "")
	if got := decode(t, w)["status"]; got != "ok" {
		t.Fatalf("Expected register ok, got %s", w.Body.String())
	}

	// the UNIQUE constraint reports through the same message as the pre-check
	w = request(srv, "POST", "/register", creds, "")
	if got := decode(t, w)["message"]; got != "Username already exists." {
		t.Errorf("Expected duplicate message, got %v", got)
	}

	w = request(srv, "POST", "/login", creds, "")
	body := decode(t, w)
	token, _ := body["token"].(string)
	if body["status"] != "ok" || token == "" {
		t.Fatalf("Expected a token, got %s", w.Body.String())
	}

	w = request(srv, "POST", "/authen", "", token)
	if got := decode(t, w)["status"]; got != "ok" {
		t.Errorf("Expected authen ok, got %s", w.Body.String())
	}

	w = request(srv, "POST", "/check-username", `{"username":"somchai"}`, "")
	if got := decode(t, w)["usernameExists"]; got != true {
		t.Errorf("Expected usernameExists true, got %v", got)
	}

	userID := int64(decode(t, w)["userId"].(float64))
	w = request(srv, "PUT", fmt.Sprintf("/users/%d/reset-password", userID), `{"newPassword":"password2"}`, token)
	if w.Code != http.StatusOK {
		t.Errorf("Expected reset 200, got %d: %s", w.Code, w.Body.String())
	}

	w = request(srv, "POST", "/login", `{"username":"somchai","password":"password2"}`, "")
	if got := decode(t, w)["status"]; got != "ok" {
		t.Errorf("Expected login with new password, got %s", w.Body.String())
	}
}
