package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProviderAccount is one linked identity entry inside the token payload.
type ProviderAccount struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"providerUserId"`
}

// IdentityClaims is the credential payload. The providerAccounts list is
// recomputed from the aggregate at issuance time, never stored.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email            string            `json:"email,omitempty"`
	Name             string            `json:"name,omitempty"`
	ProviderAccounts []ProviderAccount `json:"providerAccounts,omitempty"`
}

// UserID returns the subject claim.
func (c *IdentityClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time, or the zero time when unset.
func (c *IdentityClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// BuildClaims computes the credential payload for a user: subject, email,
// display name, and the linked provider identities. Users with a password
// hash get a synthetic "local" entry whose external id is the user id.
func BuildClaims(user *User) *IdentityClaims {
	accounts := user.Accounts()
	providerAccounts := make([]ProviderAccount, 0, len(accounts)+1)

	for _, account := range accounts {
		providerAccounts = append(providerAccounts, ProviderAccount{
			Provider:       account.Provider.String(),
			ProviderUserID: account.ProviderUserID.String(),
		})
	}

	if user.HasPassword() {
		providerAccounts = append(providerAccounts, ProviderAccount{
			Provider:       ProviderLocal.String(),
			ProviderUserID: user.ID().String(),
		})
	}

	return &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID().String(),
		},
		Email:            user.Email().String(),
		Name:             user.Name().String(),
		ProviderAccounts: providerAccounts,
	}
}
