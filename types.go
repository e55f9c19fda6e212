package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal logging surface the package depends on.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// UserRepository is the persistence contract for the User aggregate. Lookups
// return (nil, nil) when no record matches. Save and Update must surface
// uniqueness violations on email as ErrEmailAlreadyTaken and on the
// (provider, providerUserId) pair as ErrAccountAlreadyLinked.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email Email) (*User, error)
	FindByAccount(ctx context.Context, provider ProviderCode, providerUserID ProviderUserID) (*User, error)
	Save(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

// LinkedAccount pairs an Account with its owning User.
type LinkedAccount struct {
	User    *User
	Account Account
}

// AccountRepository is the persistence contract for provider accounts.
// FindByProviderUserID returns (nil, nil) when no account matches. LinkToUser
// must surface a duplicate (provider, providerUserId) pair as
// ErrAccountAlreadyLinked.
type AccountRepository interface {
	FindByProviderUserID(ctx context.Context, provider ProviderCode, providerUserID ProviderUserID) (*LinkedAccount, error)
	LinkToUser(ctx context.Context, user *User, account Account) error
}

// PasswordHasher hashes and verifies plaintext passwords. Verify reports a
// mismatch as false, never as an error.
type PasswordHasher interface {
	Hash(plain string) (PasswordHash, error)
	Verify(plain string, hash PasswordHash) bool
}

// AccessToken is a signed bearer credential with its expiry.
type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and verifies bearer credentials bound to an issuer and
// audience. PublicJWKS exposes the verification keys for external verifiers.
type TokenService interface {
	Generate(user *User) (AccessToken, error)
	Verify(token string) (*IdentityClaims, error)
	PublicJWKS() (map[string]any, error)
}

// AuthenticatedUser is the public projection of a user returned by the use
// cases.
type AuthenticatedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewAuthenticatedUser projects a user aggregate.
func NewAuthenticatedUser(user *User) AuthenticatedUser {
	return AuthenticatedUser{
		ID:    user.ID().String(),
		Email: user.Email().String(),
		Name:  user.Name().String(),
	}
}

// AuthResult is the terminal success value of the register, login, and OAuth
// callback flows.
type AuthResult struct {
	User        AuthenticatedUser `json:"user"`
	AccessToken AccessToken       `json:"access_token"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// DefaultLogger returns the stdout logger used when none is provided.
func DefaultLogger() Logger {
	return defLogger{}
}
