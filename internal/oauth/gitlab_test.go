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

func TestGitLabProvider_GetConsentURL(t *testing.T) {
	provider := NewGitLabProvider(config.OAuthConfig{ClientID: "test-client-id"})

	url := provider.GetConsentURL("test-state")

	assert.Equal(t, "gitlab", provider.Name())
	assert.Contains(t, url, "gitlab.com/oauth/authorize")
	assert.Contains(t, url, "scope=read_user")
}

func TestGitLabProvider_ExchangeCode(t *testing.T) {
	_, endpoint := newTokenServer(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 77, "username": "tanuki", "name": "Tan Uki", "email": "tanuki@example.com"}`))
	}))
	defer api.Close()

	provider := &GitLabProvider{config: testOAuthConfig(endpoint), apiBase: api.URL}

	info, err := provider.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "77", info.ID)
	assert.Equal(t, "Tan Uki", info.FullName)
	assert.Equal(t, "tanuki", info.Name)
	assert.Empty(t, info.AvatarURL)
}
