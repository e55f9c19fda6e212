package github

import (
	"strconv"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
)

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func mapProfile(user *githubUser, email string, emailVerified bool) *oauth.Profile {
	if user == nil {
		return nil
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &oauth.Profile{
		Provider:       identity.ProviderGitHub,
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		EmailVerified:  emailVerified,
		Name:           name,
	}
}
