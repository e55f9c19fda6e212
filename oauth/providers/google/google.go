// Package google implements the oauth.Provider capability for Google.
package google

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
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	defaultScope       = "openid email profile"
)

// Config holds Google OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Scope        string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

// Provider implements oauth.Provider for Google.
type Provider struct {
	config     Config
	httpClient *http.Client
}

// New creates a new Google provider.
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
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
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
	return identity.ProviderGoogle
}

// BuildAuthorizationURL implements oauth.Provider.
func (p *Provider) BuildAuthorizationURL(_ context.Context, req oauth.AuthorizationRequest) (string, error) {
	params := url.Values{
		"response_type":          {"code"},
		"client_id":              {p.config.ClientID},
		"redirect_uri":           {req.RedirectURI},
		"scope":                  {p.config.Scope},
		"state":                  {req.State},
		"code_challenge":         {req.CodeChallenge},
		"code_challenge_method":  {"S256"},
		"access_type":            {"offline"},
		"include_granted_scopes": {"true"},
		"prompt":                 {"consent"},
	}

	if req.Nonce != "" {
		params.Set("nonce", req.Nonce)
	}

	return p.config.AuthURL + "?" + params.Encode(), nil
}

// FetchProfile implements oauth.Provider: it exchanges the authorization
// code plus the PKCE verifier for an access token, then fetches the OpenID
// userinfo document.
func (p *Provider) FetchProfile(ctx context.Context, req oauth.ProfileRequest) (*oauth.Profile, error) {
	accessToken, err := p.exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	info, err := p.fetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return mapProfile(info), nil
}

func (p *Provider) exchange(ctx context.Context, req oauth.ProfileRequest) (string, error) {
	data := url.Values{
		"code":          {req.Code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {req.RedirectURI},
		"grant_type":    {"authorization_code"},
		"code_verifier": {req.CodeVerifier},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("google: failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return "", fmt.Errorf("google: token exchange failed (status=%d, error=%q)", resp.StatusCode, tokenResp.Error)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("google: token response missing access_token")
	}

	return tokenResp.AccessToken, nil
}

func (p *Provider) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: userinfo request failed (status=%d)", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google: failed to decode userinfo: %w", err)
	}

	return &info, nil
}

var _ oauth.Provider = (*Provider)(nil)
