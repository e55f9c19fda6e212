package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
	"github.com/goliatone/go-identity/oauth/providers/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAuthorizationURL(t *testing.T) {
	provider := github.New(github.Config{ClientID: "client-id"})

	raw, err := provider.BuildAuthorizationURL(context.Background(), oauth.AuthorizationRequest{
		RedirectURI:   "https://app.example.com/callback",
		State:         "state-token",
		CodeChallenge: "challenge",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", parsed.Host)

	params := parsed.Query()
	assert.Equal(t, "client-id", params.Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", params.Get("redirect_uri"))
	assert.Equal(t, "user:email read:user", params.Get("scope"))
	assert.Equal(t, "state-token", params.Get("state"))
	assert.Equal(t, "challenge", params.Get("code_challenge"))
	assert.Equal(t, "S256", params.Get("code_challenge_method"))
}

type fixture struct {
	tokenForm url.Values
	user      map[string]any
	emails    []map[string]any
	provider  *github.Provider
	servers   []*httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		user: map[string]any{
			"id":    int64(583231),
			"login": "octocat",
			"name":  "The Octocat",
		},
	}

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		f.tokenForm = r.PostForm
		json.NewEncoder(w).Encode(map[string]any{"access_token": "gh-access-token", "token_type": "bearer"})
	}))

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-access-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(f.user)
	}))

	emailsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.emails)
	}))

	f.servers = []*httptest.Server{tokenServer, userServer, emailsServer}
	t.Cleanup(func() {
		for _, server := range f.servers {
			server.Close()
		}
	})

	f.provider = github.New(github.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenServer.URL,
		UserURL:      userServer.URL,
		EmailsURL:    emailsServer.URL,
	})

	return f
}

func TestFetchProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("maps the user and picks the primary email", func(t *testing.T) {
		f := newFixture(t)
		f.emails = []map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octocat@example.com", "primary": true, "verified": true},
		}

		profile, err := f.provider.FetchProfile(ctx, oauth.ProfileRequest{
			Code:         "auth-code",
			RedirectURI:  "https://app.example.com/callback",
			CodeVerifier: "verifier",
		})
		require.NoError(t, err)

		assert.Equal(t, identity.ProviderGitHub, profile.Provider)
		assert.Equal(t, "583231", profile.ProviderUserID)
		assert.Equal(t, "octocat@example.com", profile.Email)
		assert.True(t, profile.EmailVerified)
		assert.Equal(t, "The Octocat", profile.Name)

		assert.Equal(t, "auth-code", f.tokenForm.Get("code"))
		assert.Equal(t, "verifier", f.tokenForm.Get("code_verifier"))
	})

	t.Run("falls back to a verified email when none is primary", func(t *testing.T) {
		f := newFixture(t)
		f.emails = []map[string]any{
			{"email": "unverified@example.com", "primary": false, "verified": false},
			{"email": "verified@example.com", "primary": false, "verified": true},
		}

		profile, err := f.provider.FetchProfile(ctx, oauth.ProfileRequest{Code: "auth-code"})
		require.NoError(t, err)
		assert.Equal(t, "verified@example.com", profile.Email)
	})

	t.Run("keeps the public profile email when the list is empty", func(t *testing.T) {
		f := newFixture(t)
		f.user["email"] = "public@example.com"
		f.emails = nil

		profile, err := f.provider.FetchProfile(ctx, oauth.ProfileRequest{Code: "auth-code"})
		require.NoError(t, err)
		assert.Equal(t, "public@example.com", profile.Email)
	})

	t.Run("empty display name falls back to login", func(t *testing.T) {
		f := newFixture(t)
		f.user["name"] = ""

		profile, err := f.provider.FetchProfile(ctx, oauth.ProfileRequest{Code: "auth-code"})
		require.NoError(t, err)
		assert.Equal(t, "octocat", profile.Name)
	})

	t.Run("token error fails the exchange", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": "bad_verification_code"})
		}))
		defer tokenServer.Close()

		provider := github.New(github.Config{ClientID: "client-id", TokenURL: tokenServer.URL})

		_, err := provider.FetchProfile(ctx, oauth.ProfileRequest{Code: "bad-code"})
		assert.ErrorContains(t, err, "token exchange failed")
	})
}
