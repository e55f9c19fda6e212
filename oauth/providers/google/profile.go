package google

import (
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
)

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func mapProfile(info *googleUserInfo) *oauth.Profile {
	if info == nil {
		return nil
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	return &oauth.Profile{
		Provider:       identity.ProviderGoogle,
		ProviderUserID: info.Sub,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           name,
	}
}
