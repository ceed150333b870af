package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorakhq/dorak/config"
	in_memory "github.com/dorakhq/dorak/internal/storage/in-memory"
	"github.com/dorakhq/dorak/internal/usecase"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	accountCfg := config.Account{SignupCredits: 25, CreditsPerImage: 5}
	account := usecase.NewAccountUsecase(usecase.AccountUsecaseDeps{
		UserStorage: in_memory.NewUserStorage(),
		Preferences: in_memory.NewPreferenceStorage(),
	}, accountCfg)
	chat := usecase.NewChatUsecase(usecase.ChatUsecaseDeps{})
	images := usecase.NewImageUsecase(usecase.ImageUsecaseDeps{Account: account}, accountCfg)

	handlers := NewHandlers(account, chat, images, config.HTTP{
		Addr:          ":0",
		AllowedOrigin: "http://localhost:3000",
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
	})
	mux := http.NewServeMux()
	handlers.Register(mux)

	server := httptest.NewServer(handlers.WithCORS(handlers.WithAuth(mux)))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func TestRegisterVerifyLoginFlow(t *testing.T) {
	server := newTestServer(t)
	client := newCookieClient(t)

	resp := postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"username":         "vera",
		"email":            "vera@example.com",
		"password":         "Str0ng!pass",
		"confirm_password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unverified accounts cannot log in yet.
	resp = postJSON(t, client, server.URL+"/api/auth/login", map[string]string{
		"email":    "vera@example.com",
		"password": "Str0ng!pass",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/auth/verify", map[string]string{
		"email": "vera@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/auth/login", map[string]string{
		"email":    "vera@example.com",
		"password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user struct {
		Username string `json:"username"`
		Credits  int    `json:"credits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "vera", user.Username)
	assert.Equal(t, 25, user.Credits)
}

func TestProfileRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileAndCreditsWithCookie(t *testing.T) {
	server := newTestServer(t)
	client := newCookieClient(t)

	postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"username":         "vera",
		"email":            "vera@example.com",
		"password":         "Str0ng!pass",
		"confirm_password": "Str0ng!pass",
	})
	postJSON(t, client, server.URL+"/api/auth/verify", map[string]string{"email": "vera@example.com"})
	resp := postJSON(t, client, server.URL+"/api/auth/login", map[string]string{
		"email":    "vera@example.com",
		"password": "Str0ng!pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := client.Get(server.URL + "/api/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/credits/purchase", map[string]string{"plan": "Starter"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user struct {
		Credits int `json:"credits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, 125, user.Credits)

	resp = postJSON(t, client, server.URL+"/api/credits/purchase", map[string]string{"plan": "Nonsense"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGoogleLoginIssuesCookie(t *testing.T) {
	server := newTestServer(t)
	client := newCookieClient(t)

	resp := postJSON(t, client, server.URL+"/api/auth/google", map[string]string{"name": "Alex Ray"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "alex.ray@simulated-google.com", user.Email)

	resp, err := client.Get(server.URL + "/api/profile")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestThemeRoundTrip(t *testing.T) {
	server := newTestServer(t)
	client := newCookieClient(t)

	postJSON(t, client, server.URL+"/api/auth/google", map[string]string{"name": "Alex Ray"})

	resp, err := client.Get(server.URL + "/api/theme")
	require.NoError(t, err)
	defer resp.Body.Close()
	var theme struct {
		Theme string `json:"theme"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&theme))
	assert.Equal(t, "dark", theme.Theme)

	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/theme", bytes.NewReader([]byte(`{"theme":"light"}`)))
	require.NoError(t, err)
	putResp, err := client.Do(req)
	require.NoError(t, err)
	defer putResp.Body.Close()
	assert.Equal(t, http.StatusOK, putResp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/profile", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
