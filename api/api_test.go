package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"flexgen/auth-api/config"
	"flexgen/auth-api/db"
	"flexgen/auth-api/internal/auth"
	"flexgen/auth-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:           config.EnvDevelopment,
		LogLevel:      "info",
		Port:          3001,
		FrontendURL:   "http://localhost:3000",
		CORSOrigins:   []string{"http://localhost:3000"},
		JWT:           config.JWTConfig{Secret: "test-secret", TTL: time.Hour},
		SessionSecret: "session-secret",
		Database:      config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Security: config.SecurityConfig{
			RateLimit:    0,
			BcryptCost:   bcrypt.MinCost,
			PasswordHash: "bcrypt",
			BodyLimit:    1 << 20,
		},
		Sessions:       config.SessionsConfig{CleanupInterval: time.Hour},
		NormalizeEmail: true,
	}
}

func newTestAPI(t *testing.T, providers auth.Providers, opts ...func(*config.Config)) *API {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	gdb, err := db.New(cfg.Database)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	a, err := New(t.Context(), cfg, gdb, providers)
	require.NoError(t, err)

	return a
}

type response struct {
	*httptest.ResponseRecorder
	body map[string]any
}

func (a *API) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	r := response{ResponseRecorder: w}
	json.Unmarshal(w.Body.Bytes(), &r.body)

	return r
}

func (r response) object(key string) map[string]any {
	m, _ := r.body[key].(map[string]any)
	return m
}

var scenarioUser = map[string]any{
	"email":     "a@b.com",
	"password":  "longenough1",
	"firstName": "A",
	"lastName":  "B",
}

// registerToken registers the scenario user and returns its token and ID
func registerToken(t *testing.T, a *API) (string, string) {
	t.Helper()

	r := a.do(t, http.MethodPost, "/auth/register", "", scenarioUser)
	require.Equal(t, http.StatusCreated, r.Code, r.Body.String())

	return r.body["token"].(string), r.object("user")["id"].(string)
}

// assertNoSecrets fails when a response leaks stored credentials
func assertNoSecrets(t *testing.T, r response) {
	t.Helper()

	raw := r.Body.String()
	for _, key := range []string{"password", "emailVerificationToken", "resetPasswordToken", "resetPasswordExpires", "$2a$"} {
		assert.NotContains(t, raw, key)
	}
}

func TestRegister(t *testing.T) {
	a := newTestAPI(t, nil)

	// Scenario A
	r := a.do(t, http.MethodPost, "/auth/register", "", scenarioUser)
	require.Equal(t, http.StatusCreated, r.Code, r.Body.String())
	assert.Equal(t, "User created successfully", r.body["message"])
	assert.NotEmpty(t, r.body["token"])

	user := r.object("user")
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, false, user["isEmailVerified"])
	assert.Equal(t, "local", user["provider"])
	assertNoSecrets(t, r)

	// Scenario B
	r = a.do(t, http.MethodPost, "/auth/register", "", scenarioUser)
	assert.Equal(t, http.StatusConflict, r.Code)
	assert.Equal(t, "User already exists with this email", r.body["error"])
	assert.NotEmpty(t, r.body["requestID"])

	// Same email in another case is still a duplicate
	upper := map[string]any{"email": "A@B.COM", "password": "longenough1", "firstName": "A", "lastName": "B"}
	r = a.do(t, http.MethodPost, "/auth/register", "", upper)
	assert.Equal(t, http.StatusConflict, r.Code)
}

func TestRegister_Validation(t *testing.T) {
	a := newTestAPI(t, nil)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing names", map[string]any{"email": "a@b.com", "password": "longenough1"}, "All fields are required"},
		{"missing password", map[string]any{"email": "a@b.com", "firstName": "A", "lastName": "B"}, "All fields are required"},
		{"bad email", map[string]any{"email": "nope", "password": "longenough1", "firstName": "A", "lastName": "B"}, "Invalid email format"},
		{"short password", map[string]any{"email": "a@b.com", "password": "short", "firstName": "A", "lastName": "B"}, "Password must be at least 8 characters long"},
		{"long password", map[string]any{"email": "a@b.com", "password": strings.Repeat("p", 73), "firstName": "A", "lastName": "B"}, "Password must be at most 72 bytes long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := a.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, r.Code)
			assert.Equal(t, tt.want, r.body["error"])
		})
	}

	// Nothing reached the store
	var n int64
	require.NoError(t, a.Store.DB().Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegister_MalformedBody(t *testing.T) {
	a := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t, nil)
	registerToken(t, a)

	r := a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "a@b.com", "password": "longenough1"})
	require.Equal(t, http.StatusOK, r.Code, r.Body.String())
	assert.Equal(t, "Login successful", r.body["message"])
	assert.NotEmpty(t, r.body["token"])
	assert.Equal(t, "a@b.com", r.object("user")["email"])
	assert.NotNil(t, r.object("user")["lastLogin"])
	assertNoSecrets(t, r)

	// Scenario C
	wrong := a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "a@b.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, "Invalid email or password", wrong.body["error"])

	unknown := a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "x@b.com", "password": "longenough1"})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.body["error"], unknown.body["error"])

	r = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	a := newTestAPI(t, nil, func(c *config.Config) { c.Security.RateLimit = 2 })

	body := map[string]any{"email": "x@b.com", "password": "longenough1"}
	for range 2 {
		assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/auth/login", "", body).Code)
	}

	assert.Equal(t, http.StatusTooManyRequests, a.do(t, http.MethodPost, "/auth/login", "", body).Code)
}

func TestProfile(t *testing.T) {
	a := newTestAPI(t, nil)

	// Scenario D
	r := a.do(t, http.MethodGet, "/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Access token required", r.body["error"])

	r = a.do(t, http.MethodGet, "/auth/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, "Invalid or expired token", r.body["error"])

	token, userID := registerToken(t, a)

	r = a.do(t, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	user := r.object("user")
	assert.Equal(t, userID, user["id"])
	assert.Equal(t, "A", user["firstName"])
	prefs, _ := user["preferences"].(map[string]any)
	require.NotNil(t, prefs)
	assert.Equal(t, "light", prefs["theme"])
	assertNoSecrets(t, r)

	r = a.do(t, http.MethodPut, "/auth/profile", token, map[string]any{
		"firstName": "Alice",
		"lastName":  "Smith",
		"avatar":    "https://cdn.example.com/alice.png",
	})
	require.Equal(t, http.StatusOK, r.Code, r.Body.String())
	assert.Equal(t, "Profile updated successfully", r.body["message"])

	r = a.do(t, http.MethodGet, "/auth/profile", token, nil)
	user = r.object("user")
	assert.Equal(t, "Alice", user["firstName"])
	assert.Equal(t, "Smith", user["lastName"])
	assert.Equal(t, "https://cdn.example.com/alice.png", user["avatar"])

	r = a.do(t, http.MethodPut, "/auth/profile", token, map[string]any{"firstName": "A", "avatar": "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
}

func TestValidate(t *testing.T) {
	a := newTestAPI(t, nil)
	token, userID := registerToken(t, a)

	r := a.do(t, http.MethodGet, "/auth/validate", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, userID, r.object("user")["id"])
	assertNoSecrets(t, r)

	// Deactivated accounts keep valid tokens but no longer resolve
	require.NoError(t, a.Store.DB().Model(&model.User{}).Where("id = ?", userID).Update("is_active", false).Error)

	r = a.do(t, http.MethodGet, "/auth/validate", token, nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, "User not found", r.body["error"])
}

func TestPreferences(t *testing.T) {
	a := newTestAPI(t, nil)
	token, _ := registerToken(t, a)

	r := a.do(t, http.MethodGet, "/auth/preferences", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	prefs := r.object("preferences")
	assert.Equal(t, true, prefs["emailNotifications"])
	assert.Equal(t, true, prefs["securityAlerts"])
	assert.Equal(t, false, prefs["marketingEmails"])
	assert.Equal(t, "light", prefs["theme"])
	assert.Equal(t, "en", prefs["language"])
	assert.Equal(t, "UTC", prefs["timezone"])

	r = a.do(t, http.MethodPut, "/auth/preferences", token, map[string]any{
		"emailNotifications": false,
		"theme":              "dark",
		"timezone":           "Europe/Berlin",
	})
	require.Equal(t, http.StatusOK, r.Code, r.Body.String())
	assert.Equal(t, "Preferences updated successfully", r.body["message"])

	prefs = a.do(t, http.MethodGet, "/auth/preferences", token, nil).object("preferences")
	assert.Equal(t, false, prefs["emailNotifications"])
	assert.Equal(t, true, prefs["securityAlerts"])
	assert.Equal(t, "dark", prefs["theme"])
	assert.Equal(t, "en", prefs["language"])
	assert.Equal(t, "Europe/Berlin", prefs["timezone"])

	r = a.do(t, http.MethodPut, "/auth/preferences", token, map[string]any{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
}

func TestPreferences_ToggleFlags(t *testing.T) {
	a := newTestAPI(t, nil)
	token, _ := registerToken(t, a)

	for _, flag := range []string{"emailNotifications", "securityAlerts", "marketingEmails"} {
		t.Run(flag, func(t *testing.T) {
			for _, want := range []bool{false, true} {
				r := a.do(t, http.MethodPut, "/auth/preferences", token, map[string]any{flag: want})
				require.Equal(t, http.StatusOK, r.Code, r.Body.String())

				prefs := a.do(t, http.MethodGet, "/auth/preferences", token, nil).object("preferences")
				assert.Equal(t, want, prefs[flag])
			}
		})
	}

	// Everything is back on, marketing included
	prefs := a.do(t, http.MethodGet, "/auth/preferences", token, nil).object("preferences")
	assert.Equal(t, true, prefs["emailNotifications"])
	assert.Equal(t, true, prefs["securityAlerts"])
	assert.Equal(t, true, prefs["marketingEmails"])
}

func TestPreferences_DefaultsWhenMissing(t *testing.T) {
	a := newTestAPI(t, nil)
	token, userID := registerToken(t, a)

	require.NoError(t, a.Store.DB().Where("user_id = ?", userID).Delete(&model.UserPreferences{}).Error)

	r := a.do(t, http.MethodGet, "/auth/preferences", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "light", r.object("preferences")["theme"])

	// Updating recreates the row
	r = a.do(t, http.MethodPut, "/auth/preferences", token, map[string]any{"theme": "system"})
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "system", a.do(t, http.MethodGet, "/auth/preferences", token, nil).object("preferences")["theme"])
}

func TestScans(t *testing.T) {
	a := newTestAPI(t, nil)
	token, userID := registerToken(t, a)

	r := a.do(t, http.MethodPost, "/scans/save", token, map[string]any{"targetUrl": "https://example.com"})
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Equal(t, "Scan type is required", r.body["error"])

	// Older scan written directly so ordering doesn't depend on clock resolution
	_, err := a.Store.InsertScan(t.Context(), &model.ScanHistory{
		UserID:    userID,
		ScanType:  "dns-lookup",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	// Scenario E
	r = a.do(t, http.MethodPost, "/scans/save", token, map[string]any{
		"scanType":     "port-scan",
		"targetUrl":    "https://example.com",
		"scanResults":  map[string]any{"open": []int{22, 443}},
		"riskLevel":    "medium",
		"threatsFound": 2,
		"scanDuration": 1500,
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Body.String())
	assert.Equal(t, "Scan result saved successfully", r.body["message"])
	scanID := r.body["scanId"]
	assert.NotEmpty(t, scanID)

	r = a.do(t, http.MethodGet, "/scans/history?page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, r.Code)

	scans, _ := r.body["scans"].([]any)
	require.Len(t, scans, 2)
	first := scans[0].(map[string]any)
	assert.Equal(t, scanID, first["id"])
	assert.Equal(t, "port-scan", first["scanType"])
	assert.Equal(t, "completed", first["scanStatus"])
	assert.Equal(t, map[string]any{"open": []any{float64(22), float64(443)}}, first["scanResults"])
	assert.Nil(t, scans[1].(map[string]any)["scanResults"])

	pagination := r.object("pagination")
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(10), pagination["limit"])
	assert.GreaterOrEqual(t, pagination["total"], float64(1))
	assert.Equal(t, float64(1), pagination["totalPages"])

	r = a.do(t, http.MethodGet, "/scans/history?page=2&limit=1", token, nil)
	scans, _ = r.body["scans"].([]any)
	require.Len(t, scans, 1)
	assert.Equal(t, "dns-lookup", scans[0].(map[string]any)["scanType"])
	assert.Equal(t, float64(2), r.object("pagination")["totalPages"])

	// Pages past the end are empty, however large the page number
	for _, page := range []string{"3", strconv.Itoa(math.MaxInt), strconv.Itoa(math.MaxInt / 10)} {
		r = a.do(t, http.MethodGet, "/scans/history?limit=10&page="+page, token, nil)
		require.Equal(t, http.StatusOK, r.Code, page)

		scans, _ = r.body["scans"].([]any)
		assert.NotNil(t, scans, page)
		assert.Empty(t, scans, page)
		assert.Equal(t, float64(2), r.object("pagination")["total"], page)
	}

	// Bad paging input falls back to defaults
	r = a.do(t, http.MethodGet, "/scans/history?page=-3&limit=abc", token, nil)
	assert.Equal(t, float64(1), r.object("pagination")["page"])
	assert.Equal(t, float64(10), r.object("pagination")["limit"])

	// Another user sees nothing
	other := a.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"email": "c@d.com", "password": "longenough1", "firstName": "C", "lastName": "D",
	})
	require.Equal(t, http.StatusCreated, other.Code)

	r = a.do(t, http.MethodGet, "/scans/history", other.body["token"].(string), nil)
	scans, _ = r.body["scans"].([]any)
	assert.NotNil(t, scans)
	assert.Empty(t, scans)
	assert.Equal(t, float64(0), r.object("pagination")["total"])
}

func TestLogout(t *testing.T) {
	a := newTestAPI(t, nil)
	token, _ := registerToken(t, a)

	r := a.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "Logged out successfully", r.body["message"])

	// Stateless by default, the token lives until it expires
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/auth/validate", token, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/auth/logout", "", nil).Code)
}

func TestLogout_Revocation(t *testing.T) {
	a := newTestAPI(t, nil, func(c *config.Config) { c.JWT.Revocation = true })
	token, _ := registerToken(t, a)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/auth/validate", token, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/auth/logout", token, nil).Code)

	r := a.do(t, http.MethodGet, "/auth/validate", token, nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, "Invalid or expired token", r.body["error"])

	// Other sessions of the user are unaffected
	r = a.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "a@b.com", "password": "longenough1"})
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/auth/validate", r.body["token"].(string), nil).Code)
}

func TestTools(t *testing.T) {
	a := newTestAPI(t, nil)

	r := a.do(t, http.MethodPost, "/api/tools/port-scanner", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.Code)
	assert.Equal(t, "Authentication required", r.body["error"])
	assert.Equal(t, "Please sign in to use this tool", r.body["message"])
	assert.Equal(t, true, r.body["requiresAuth"])

	r = a.do(t, http.MethodPost, "/api/tools/port-scanner", "expired.or.bad", nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Equal(t, "Please sign in again to continue", r.body["message"])
	assert.Equal(t, true, r.body["requiresAuth"])

	token, userID := registerToken(t, a)
	r = a.do(t, http.MethodPost, "/api/tools/waf/tester", token, nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, true, r.body["authorized"])
	assert.Equal(t, "waf/tester", r.body["tool"])
	assert.Equal(t, userID, r.body["userId"])
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, nil)

	r := a.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "OK", r.body["status"])

	ts, err := time.Parse(time.RFC3339, r.body["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
	assert.True(t, strings.HasSuffix(r.body["timestamp"].(string), "Z"))

	assert.Contains(t, r.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", r.Header().Get("X-Content-Type-Options"))
}

func TestNotFound(t *testing.T) {
	a := newTestAPI(t, nil)

	r := a.do(t, http.MethodGet, "/does/not/exist", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Code)
	assert.Equal(t, "Route not found", r.body["error"])
}

func TestCORS(t *testing.T) {
	a := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization, x-csrf-token")

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
