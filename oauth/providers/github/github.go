// Package github implements the oauth.Provider capability for GitHub.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
)

const (
	defaultAuthURL   = "https://github.com/login/oauth/authorize"
	defaultTokenURL  = "https://github.com/login/oauth/access_token"
	defaultUserURL   = "https://api.github.com/user"
	defaultEmailsURL = "https://api.github.com/user/emails"
	defaultScope     = "user:email read:user"
)

// Config holds GitHub OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Scope        string

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string

	HTTPClient *http.Client
}

// Provider implements oauth.Provider for GitHub.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new GitHub provider.
func New(cfg Config) *Provider {
	if cfg.Scope == "" {
		cfg.Scope = defaultScope
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}
	if cfg.EmailsURL == "" {
		cfg.EmailsURL = defaultEmailsURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements oauth.Provider.
func (p *Provider) Name() identity.ProviderCode {
	return identity.ProviderGitHub
}

// BuildAuthorizationURL implements oauth.Provider.
func (p *Provider) BuildAuthorizationURL(_ context.Context, req oauth.AuthorizationRequest) (string, error) {
	params := url.Values{
		"client_id":             {p.config.ClientID},
		"redirect_uri":          {req.RedirectURI},
		"scope":                 {p.config.Scope},
		"state":                 {req.State},
		"code_challenge":        {req.CodeChallenge},
		"code_challenge_method": {"S256"},
	}

	return p.config.AuthURL + "?" + params.Encode(), nil
}

// FetchProfile implements oauth.Provider. When the user profile carries no
// public email, the primary verified address is looked up through the emails
// endpoint.
func (p *Provider) FetchProfile(ctx context.Context, req oauth.ProfileRequest) (*oauth.Profile, error) {
	accessToken, err := p.exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	user, err := p.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	email := user.Email
	emailVerified := false
	if primary, verified, err := p.fetchPrimaryEmail(ctx, accessToken); err == nil && primary != "" {
		email = primary
		emailVerified = verified
	}

	return mapProfile(user, email, emailVerified), nil
}

func (p *Provider) exchange(ctx context.Context, req oauth.ProfileRequest) (string, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {req.Code},
		"redirect_uri":  {req.RedirectURI},
		"code_verifier": {req.CodeVerifier},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("github: failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return "", fmt.Errorf("github: token exchange failed (status=%d, error=%q)", resp.StatusCode, tokenResp.Error)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("github: token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}

func (p *Provider) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: user request failed (status=%d)", resp.StatusCode)
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("github: failed to decode user: %w", err)
	}

	return &user, nil
}

func (p *Provider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.EmailsURL, nil)
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("github: emails request failed (status=%d)", resp.StatusCode)
	}

	var emails []githubEmail
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", false, fmt.Errorf("github: failed to decode emails: %w", err)
	}

	for _, entry := range emails {
		if entry.Primary {
			return entry.Email, entry.Verified, nil
		}
	}
	for _, entry := range emails {
		if entry.Verified {
			return entry.Email, true, nil
		}
	}

	return "", false, nil
}

var _ oauth.Provider = (*Provider)(nil)
