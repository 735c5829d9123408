package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dimitrije/dashboard-api/internal/config"
)

// UserInfo is what an identity provider reports about the signed-in account.
// FullName and Name feed the matching identity metadata fields.
type UserInfo struct {
	ID        string
	Provider  string
	Email     string
	FullName  string
	Name      string
	AvatarURL string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// Registry holds the providers that have client credentials configured.
type Registry map[string]Provider

func NewRegistry(cfg *config.Config) Registry {
	r := Registry{}
	if cfg.GitHub.ClientID != "" {
		r.Add(NewGitHubProvider(cfg.GitHub))
	}
	if cfg.GitLab.ClientID != "" {
		r.Add(NewGitLabProvider(cfg.GitLab))
	}
	if cfg.Google.ClientID != "" {
		r.Add(NewGoogleProvider(cfg.Google))
	}
	return r
}

func (r Registry) Add(p Provider) {
	r[p.Name()] = p
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
