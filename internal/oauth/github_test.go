package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/dashboard-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubProvider_Name(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{})
	assert.Equal(t, "github", provider.Name())
}

func TestGitHubProvider_GetConsentURL(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
}

func TestGitHubProvider_ExchangeCode(t *testing.T) {
	_, endpoint := newTokenServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 12345,
			"login": "octo",
			"name": "Octo Cat",
			"email": "octo@example.com",
			"avatar_url": "https://avatars.example.com/u/12345"
		}`))
	}))
	defer api.Close()

	provider := &GitHubProvider{config: testOAuthConfig(endpoint), apiBase: api.URL}

	info, err := provider.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, "12345", info.ID)
	assert.Equal(t, "github", info.Provider)
	assert.Equal(t, "octo@example.com", info.Email)
	assert.Equal(t, "Octo Cat", info.FullName)
	assert.Equal(t, "octo", info.Name)
	assert.Equal(t, "https://avatars.example.com/u/12345", info.AvatarURL)
}

func TestGitHubProvider_ExchangeCode_PrivateEmail(t *testing.T) {
	_, endpoint := newTokenServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id": 1, "login": "octo", "name": "", "email": ""}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[
				{"email": "unverified@example.com", "primary": false, "verified": false},
				{"email": "private@example.com", "primary": true, "verified": true}
			]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	provider := &GitHubProvider{config: testOAuthConfig(endpoint), apiBase: api.URL}

	info, err := provider.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "private@example.com", info.Email)
	assert.Empty(t, info.FullName)
}

func TestGitHubProvider_ExchangeCode_NoVerifiedEmail(t *testing.T) {
	_, endpoint := newTokenServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/user" {
			_, _ = w.Write([]byte(`{"id": 1, "login": "octo"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"email": "x@example.com", "primary": true, "verified": false}]`))
	}))
	defer api.Close()

	provider := &GitHubProvider{config: testOAuthConfig(endpoint), apiBase: api.URL}

	_, err := provider.ExchangeCode(context.Background(), "code")
	assert.Error(t, err)
}

func TestGitHubProvider_ExchangeCode_APIError(t *testing.T) {
	_, endpoint := newTokenServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	provider := &GitHubProvider{config: testOAuthConfig(endpoint), apiBase: api.URL}

	_, err := provider.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
