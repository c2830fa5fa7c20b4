package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexkudos/kudos/internal/config"
)

func newTestServer(t *testing.T, opts ...func(*config.APIConfig)) *httptest.Server {
	t.Helper()

	cfg := config.APIConfig{
		DBPath:      ":memory:",
		JWTSecret:   "server-test-secret-0123456789",
		TokenTTL:    time.Hour,
		AdminEmails: []string{"admin@apex.test"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

// call sends a JSON (or nil) body with an optional bearer token and returns
// the status and decoded body.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, ts *httptest.Server, email string) {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/register", "",
		`{"email":"`+email+`","password":"pw-123456","first_name":"Test","last_name":"User"}`)
	require.Equal(t, http.StatusOK, status, body)
}

func login(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/token", url.Values{"username": {email}, "password": {"pw-123456"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, body := call(t, ts, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Apex Kudos API is running!", body["message"])
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "ada@apex.test")

	t.Run("duplicate email", func(t *testing.T) {
		status, body := call(t, ts, http.MethodPost, "/register", "",
			`{"email":"ada@apex.test","password":"x","first_name":"A","last_name":"B"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Email already registered", body["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, err := http.PostForm(ts.URL+"/login", url.Values{"username": {"ada@apex.test"}, "password": {"nope"}})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me requires token", func(t *testing.T) {
		status, body := call(t, ts, http.MethodGet, "/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("me with token", func(t *testing.T) {
		token := login(t, ts, "ada@apex.test")
		status, body := call(t, ts, http.MethodGet, "/me", token, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ada@apex.test", body["email"])
		assert.EqualValues(t, 0, body["points_balance"])
		assert.NotContains(t, body, "password_hash")
	})
}

func TestAdminGate(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "admin@apex.test")
	register(t, ts, "dev@apex.test")
	adminToken := login(t, ts, "admin@apex.test")
	devToken := login(t, ts, "dev@apex.test")

	status, _ := call(t, ts, http.MethodPost, "/admin/core-values?name=Teamwork", devToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, ts, http.MethodPost, "/admin/core-values?name=Teamwork", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, ts, http.MethodPost, "/admin/core-values?name=Teamwork&description=Together", adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Teamwork", body["name"])

	status, _ = call(t, ts, http.MethodGet, "/users", devToken, "")
	assert.Equal(t, http.StatusOK, status, "/users is open to any authenticated user")
}

func TestPraiseAndRedemptionOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "admin@apex.test")
	register(t, ts, "giver@apex.test")
	register(t, ts, "receiver@apex.test")
	admin := login(t, ts, "admin@apex.test")
	giver := login(t, ts, "giver@apex.test")
	receiver := login(t, ts, "receiver@apex.test")

	_, cv := call(t, ts, http.MethodPost, "/admin/core-values?name=Ownership", admin, "")
	_, me := call(t, ts, http.MethodGet, "/me", receiver, "")
	_, reward := call(t, ts, http.MethodPost, "/admin/rewards", admin, `{"name":"Sticker","description":"","point_cost":10}`)

	praiseBody, _ := json.Marshal(map[string]any{
		"receiver_id":   me["id"],
		"core_value_id": cv["id"],
		"message":       "thanks!",
	})
	status, praise := call(t, ts, http.MethodPost, "/praise", giver, string(praiseBody))
	require.Equal(t, http.StatusOK, status, praise)
	assert.EqualValues(t, 10, praise["points_awarded"])

	status, self := call(t, ts, http.MethodPost, "/praise", receiver, string(praiseBody))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot praise yourself", self["message"])

	redeemBody, _ := json.Marshal(map[string]any{"reward_id": reward["id"]})
	status, redemption := call(t, ts, http.MethodPost, "/redeem", receiver, string(redeemBody))
	require.Equal(t, http.StatusOK, status, redemption)
	assert.Equal(t, "pending", redemption["status"])

	status, poor := call(t, ts, http.MethodPost, "/redeem", receiver, string(redeemBody))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Not enough points", poor["message"])

	id := int64(redemption["id"].(float64))
	fulfillPath := "/admin/redemptions/" + jsonNumber(id) + "/fulfill"
	status, _ = call(t, ts, http.MethodPatch, fulfillPath, admin, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodPatch, fulfillPath, admin, "")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = call(t, ts, http.MethodPatch, "/admin/redemptions/9999/fulfill", admin, "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, ts, http.MethodPatch, "/admin/redemptions/abc/fulfill", admin, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// slackDMs records chat.postMessage calls made against a stub Slack API.
type slackDMs struct {
	mu       sync.Mutex
	channels []string
	texts    []string
}

func newSlackAPI(t *testing.T) (*slackDMs, string) {
	t.Helper()
	dms := &slackDMs{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/chat.postMessage" {
			_, _ = io.WriteString(w, `{"ok":false,"error":"unknown_method"}`)
			return
		}
		_ = r.ParseForm()
		dms.mu.Lock()
		dms.channels = append(dms.channels, r.PostForm.Get("channel"))
		dms.texts = append(dms.texts, r.PostForm.Get("text"))
		dms.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true,"channel":"D1","ts":"1700000000.000100"}`)
	}))
	t.Cleanup(ts.Close)
	return dms, ts.URL + "/"
}

func TestGivePraise_DMsLinkedReceiver(t *testing.T) {
	dms, apiURL := newSlackAPI(t)
	ts := newTestServer(t, func(c *config.APIConfig) {
		c.SlackBotToken = "xoxb-test"
		c.SlackAPIURL = apiURL
	})
	register(t, ts, "admin@apex.test")
	register(t, ts, "giver@apex.test")
	status, body := call(t, ts, http.MethodPost, "/register", "",
		`{"email":"linked@apex.test","password":"pw-123456","first_name":"Lin","last_name":"Ked","slack_id":"ULINKED"}`)
	require.Equal(t, http.StatusOK, status, body)

	admin := login(t, ts, "admin@apex.test")
	giver := login(t, ts, "giver@apex.test")
	linked := login(t, ts, "linked@apex.test")

	_, cv := call(t, ts, http.MethodPost, "/admin/core-values?name=Ownership", admin, "")
	_, me := call(t, ts, http.MethodGet, "/me", linked, "")
	praiseBody, _ := json.Marshal(map[string]any{
		"receiver_id":   me["id"],
		"core_value_id": cv["id"],
		"message":       "thanks!",
	})
	status, praise := call(t, ts, http.MethodPost, "/praise", giver, string(praiseBody))
	require.Equal(t, http.StatusOK, status, praise)

	// The receiver without a Slack link gets no DM.
	_, adminMe := call(t, ts, http.MethodGet, "/me", admin, "")
	unlinkedBody, _ := json.Marshal(map[string]any{
		"receiver_id":   adminMe["id"],
		"core_value_id": cv["id"],
		"message":       "thanks too",
	})
	status, _ = call(t, ts, http.MethodPost, "/praise", giver, string(unlinkedBody))
	require.Equal(t, http.StatusOK, status)

	dms.mu.Lock()
	defer dms.mu.Unlock()
	assert.Equal(t, []string{"ULINKED"}, dms.channels)
	require.Len(t, dms.texts, 1)
	assert.Contains(t, dms.texts[0], "You received praise from Test!")
	assert.Contains(t, dms.texts[0], "*Ownership*")
	assert.Contains(t, dms.texts[0], "+10 points")
}
