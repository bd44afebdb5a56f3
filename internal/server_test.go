package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asset-inventory-api/internal/auth"
	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/logging"
	"asset-inventory-api/internal/testutil"
)

const testSecret = "test-secret-key-0123456789"

func newTestServer(t *testing.T, tweak func(cfg *config.Config)) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.SecretKey = testSecret
	cfg.ImportMapping = ""
	if tweak != nil {
		tweak(cfg)
	}
	srv, err := NewServer(cfg, testutil.NewTestDB(t), logging.Discard())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func credentials(username, password string) string {
	b, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return string(b)
}

func jsonField(key, value string) string {
	b, _ := json.Marshal(map[string]string{key: value})
	return string(b)
}

func register(t *testing.T, srv *Server, username, password string) {
	t.Helper()
	w := do(t, srv, "POST", "/register", credentials(username, password))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func login(t *testing.T, srv *Server, username, password string) string {
	t.Helper()
	w := do(t, srv, "POST", "/login", credentials(username, password))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "ok", body["status"], w.Body.String())
	return body["token"].(string)
}

type hasherMock struct {
	mock.Mock
}

func (m *hasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *hasherMock) Verify(plain, digest string) (bool, error) {
	args := m.Called(plain, digest)
	return args.Bool(0), args.Error(1)
}

func TestNewServerRejectsWeakSecret(t *testing.T) {
	cfg := config.Defaults()
	cfg.SecretKey = "short"
	_, err := NewServer(cfg, testutil.NewTestDB(t), logging.Discard())
	assert.Error(t, err)
}

func TestHealthAndDBPing(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = do(t, srv, "GET", "/dbping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "db: ok", w.Body.String())
}

func TestRegisterLengthRules(t *testing.T) {
	srv := newTestServer(t, nil)
	userMsg := "Username must be between 5 and 20 characters."
	passMsg := "Password must be between 8 and 30 characters."

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{"username 4", "abcd", "password1", userMsg},
		{"username 5", "abcde", "password1", ""},
		{"username 20", strings.Repeat("u", 20), "password1", ""},
		{"username 21", strings.Repeat("v", 21), "password1", userMsg},
		{"username counts runes", "ผู้ใช้งาน", "password1", ""},
		{"password 7", "pwuser07", strings.Repeat("p", 7), passMsg},
		{"password 8", "pwuser08", strings.Repeat("p", 8), ""},
		{"password 30", "pwuser30", strings.Repeat("p", 30), ""},
		{"password 31", "pwuser31", strings.Repeat("p", 31), passMsg},
		{"username checked first", "abc", "x", userMsg},
		{"username missing", "", "password1", userMsg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/register", credentials(tt.username, tt.password))
			if tt.wantMsg == "" {
				assert.Equal(t, http.StatusOK, w.Code)
				assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestRegisterMultiBytePassword(t *testing.T) {
	srv := newTestServer(t, nil)
	password := strings.Repeat("ก", 30)

	register(t, srv, "somchai", password)
	token := login(t, srv, "somchai", password)
	assert.NotEmpty(t, token)

	w := do(t, srv, "PUT", "/users/1/reset-password", jsonField("newPassword", strings.Repeat("ข", 30)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login(t, srv, "somchai", strings.Repeat("ข", 30))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "somchai", "password1")

	w := do(t, srv, "POST", "/register", credentials("somchai", "password2"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Username already exists."}`, w.Body.String())
}

func TestRegisterStoresDigest(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "somchai", "password1")

	u, err := srv.Catalog.Users.FindByUsername(t.Context(), "somchai")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", u.Password)
	assert.True(t, strings.HasPrefix(u.Password, "$2a$10$"))
}

func TestLoginAndAuthen(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "somchai", "password1")

	w := do(t, srv, "POST", "/login", credentials("nobody", "password1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"no user found"}`, w.Body.String())

	w = do(t, srv, "POST", "/login", credentials("somchai", "wrong-password"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Login failed"}`, w.Body.String())

	token := login(t, srv, "somchai", "password1")
	assert.NotEmpty(t, token)

	w = do(t, srv, "POST", "/authen", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	decoded, ok := body["decoded"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	assert.Equal(t, "somchai", decoded["username"])
	iat, exp := decoded["iat"].(float64), decoded["exp"].(float64)
	assert.Equal(t, float64(5*60*60), exp-iat)
}

func TestAuthenFailures(t *testing.T) {
	srv := newTestServer(t, nil)

	expired, err := auth.NewTokenManager(testSecret, -time.Hour).Issue("somchai")
	require.NoError(t, err)
	forged, err := auth.NewTokenManager("another-secret-0123456789", time.Hour).Issue("somchai")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "jwt must be provided"},
		{"not bearer", "Basic abc", "jwt must be provided"},
		{"garbage", "Bearer not-a-jwt", "jwt malformed"},
		{"wrong secret", "Bearer " + forged, "invalid signature"},
		{"expired", "Bearer " + expired, "jwt expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.header == "" {
				w = do(t, srv, "POST", "/authen", "")
			} else {
				w = do(t, srv, "POST", "/authen", "", "Authorization", tt.header)
			}
			assert.Equal(t, http.StatusOK, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.want, body["message"])
		})
	}
}

func TestCheckUsername(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, "POST", "/check-username", `{"username":"somchai"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"usernameExists":false}`, w.Body.String())

	register(t, srv, "somchai", "password1")
	w = do(t, srv, "POST", "/check-username", `{"username":"somchai"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"usernameExists":true,"userId":1}`, w.Body.String())
}

func TestResetPassword(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "somchai", "password1")

	w := do(t, srv, "PUT", "/users/1/reset-password", `{"newPassword":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Password must be between 8 and 30 characters long"}`, w.Body.String())

	w = do(t, srv, "PUT", "/users/abc/reset-password", `{"newPassword":"password2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"invalid id"}`, w.Body.String())

	w = do(t, srv, "PUT", "/users/1/reset-password", `{"newPassword":"password2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	login(t, srv, "somchai", "password2")
	w = do(t, srv, "POST", "/login", credentials("somchai", "password1"))
	assert.JSONEq(t, `{"status":"error","message":"Login failed"}`, w.Body.String())

	// an unknown id updates nothing and is still acknowledged
	w = do(t, srv, "PUT", "/users/999/reset-password", `{"newPassword":"password2"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHashFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	hasher := &hasherMock{}
	hasher.On("Hash", mock.Anything).Return("", errors.New("entropy exhausted"))
	srv.Hasher = hasher

	w := do(t, srv, "POST", "/register", credentials("somchai", "password1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Error hashing password"}`, w.Body.String())

	w = do(t, srv, "PUT", "/users/1/reset-password", `{"newPassword":"password2"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Error hashing password"}`, w.Body.String())

	hasher.AssertNumberOfCalls(t, "Hash", 2)
}

func TestLoginVerifyFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "somchai", "password1")

	hasher := &hasherMock{}
	hasher.On("Verify", "password1", mock.Anything).Return(false, errors.New("bcrypt: malformed digest"))
	srv.Hasher = hasher

	w := do(t, srv, "POST", "/login", credentials("somchai", "password1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "token")
	hasher.AssertExpectations(t)
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.RequireAuth = true })

	w := do(t, srv, "GET", "/hw-asset", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "MISSING_AUTH_HEADER", body["code"])

	w = do(t, srv, "GET", "/hwtotal", "", "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// account routes stay reachable without a token
	register(t, srv, "somchai", "password1")
	token := login(t, srv, "somchai", "password1")

	w = do(t, srv, "GET", "/hw-asset", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestOptionalSurfaces(t *testing.T) {
	off := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, off, "GET", "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, off, "GET", "/docs", "").Code)

	on := newTestServer(t, func(cfg *config.Config) {
		cfg.EnableMetrics = true
		cfg.EnableSwagger = true
	})
	do(t, on, "GET", "/hwtotal", "")

	w := do(t, on, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/hwtotal"`)

	w = do(t, on, "GET", "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/movetohw-amortized/{id}")

	w = do(t, on, "GET", "/docs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.CORSAllowedOrigins = "http://localhost:3000" })

	req := httptest.NewRequest("OPTIONS", "/hw-asset", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
