package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Account is a linked external-provider identity. An Account is owned by
// exactly one User and is only created or mutated through its owning
// aggregate.
type Account struct {
	Provider       ProviderCode
	ProviderUserID ProviderUserID
	// Email is the verified email snapshot taken at link time, if any.
	Email Email
}

func (a Account) key() string {
	return a.Provider.String() + "::" + strings.ToLower(a.ProviderUserID.String())
}

// User is the aggregate root for an identity. It owns the account set and
// enforces the one-account-per-(provider, providerUserId) invariant.
type User struct {
	id           uuid.UUID
	name         Name
	email        Email
	passwordHash PasswordHash
	accounts     []Account
}

// NewUser constructs a user from already validated values. A zero
// passwordHash means the user has no local credentials. The accounts list is
// rejected with ErrAccountAlreadyLinked when it contains a duplicate
// (provider, providerUserId) pair.
func NewUser(id uuid.UUID, name Name, email Email, passwordHash PasswordHash, accounts []Account) (*User, error) {
	if id == uuid.Nil {
		id = NewUserID()
	}

	seen := make(map[string]struct{}, len(accounts))
	for _, account := range accounts {
		key := account.key()
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrAccountAlreadyLinked,
				account.Provider, account.ProviderUserID)
		}
		seen[key] = struct{}{}
	}

	return &User{
		id:           id,
		name:         name,
		email:        email,
		passwordHash: passwordHash,
		accounts:     append([]Account(nil), accounts...),
	}, nil
}

// NewLocalUser constructs a freshly registered local user: generated id,
// password hash present, no linked accounts.
func NewLocalUser(name Name, email Email, passwordHash PasswordHash) (*User, error) {
	return NewUser(NewUserID(), name, email, passwordHash, nil)
}

// ID returns the user id.
func (u *User) ID() uuid.UUID { return u.id }

// Name returns the display name.
func (u *User) Name() Name { return u.name }

// Email returns the normalized email.
func (u *User) Email() Email { return u.email }

// PasswordHash returns the stored hash; it is zero for OAuth-only users.
func (u *User) PasswordHash() PasswordHash { return u.passwordHash }

// HasPassword reports whether the user registered local credentials.
func (u *User) HasPassword() bool { return !u.passwordHash.IsZero() }

// Accounts returns a copy of the linked account set. Mutating the returned
// slice does not affect the aggregate.
func (u *User) Accounts() []Account {
	return append([]Account(nil), u.accounts...)
}

// LinkAccount appends a new provider account to the set and returns it for
// the caller to persist. It fails with ErrAccountAlreadyLinked when the
// (provider, providerUserId) pair is already present; the comparison is
// case-insensitive on the external id.
func (u *User) LinkAccount(provider ProviderCode, providerUserID ProviderUserID, email Email) (Account, error) {
	account := Account{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
	}

	key := account.key()
	for _, existing := range u.accounts {
		if existing.key() == key {
			return Account{}, fmt.Errorf("%w: %s/%s", ErrAccountAlreadyLinked,
				provider, providerUserID)
		}
	}

	u.accounts = append(u.accounts, account)
	return account, nil
}

// IsAccountLinked reports whether any account for the given provider exists.
func (u *User) IsAccountLinked(provider ProviderCode) bool {
	for _, account := range u.accounts {
		if strings.EqualFold(account.Provider.String(), provider.String()) {
			return true
		}
	}
	return false
}
