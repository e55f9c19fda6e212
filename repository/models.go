// Package repository provides Bun-backed adapters for the identity ports:
// the user and account repositories and the OAuth state store.
package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserModel is the Bun model for users.
type UserModel struct {
	bun.BaseModel `bun:"table:identity_users,alias:usr"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid"`
	Name         string          `bun:"name,notnull"`
	Email        string          `bun:"email,notnull,unique"`
	PasswordHash string          `bun:"password_hash"`
	Accounts     []*AccountModel `bun:"rel:has-many,join:id=user_id"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// AccountModel is the Bun model for linked provider accounts. The
// (provider, provider_user_id) pair carries the uniqueness constraint that
// arbitrates concurrent link attempts.
type AccountModel struct {
	bun.BaseModel `bun:"table:identity_accounts,alias:acc"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID         uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	User           *UserModel `bun:"rel:belongs-to,join:user_id=id"`
	Provider       string     `bun:"provider,notnull,unique:identity_accounts_provider_identity"`
	ProviderUserID string     `bun:"provider_user_id,notnull,unique:identity_accounts_provider_identity"`
	Email          string     `bun:"email"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
}

// OAuthStateModel is the Bun model for in-flight authorization state.
type OAuthStateModel struct {
	bun.BaseModel `bun:"table:identity_oauth_states,alias:oas"`

	State        string    `bun:"state,pk"`
	Provider     string    `bun:"provider,notnull"`
	CodeVerifier string    `bun:"code_verifier,notnull"`
	Nonce        string    `bun:"nonce"`
	RedirectURI  string    `bun:"redirect_uri,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	ExpiresAt    time.Time `bun:"expires_at,notnull"`
}

// CreateSchema creates the identity tables. Intended for tests and local
// bootstrapping; production deployments manage migrations externally.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*UserModel)(nil),
		(*AccountModel)(nil),
		(*OAuthStateModel)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create schema")
		}
	}

	return nil
}

func toUser(m *UserModel) (*identity.User, error) {
	email, err := identity.NewEmail(m.Email)
	if err != nil {
		return nil, err
	}

	name, err := identity.NewName(m.Name)
	if err != nil {
		return nil, err
	}

	accounts := make([]identity.Account, 0, len(m.Accounts))
	for _, account := range m.Accounts {
		mapped, err := toAccount(account)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, mapped)
	}

	return identity.NewUser(m.ID, name, email, identity.PasswordHash(m.PasswordHash), accounts)
}

func toAccount(m *AccountModel) (identity.Account, error) {
	provider, err := identity.ParseProviderCode(m.Provider)
	if err != nil {
		return identity.Account{}, err
	}

	providerUserID, err := identity.NewProviderUserID(m.ProviderUserID)
	if err != nil {
		return identity.Account{}, err
	}

	account := identity.Account{
		Provider:       provider,
		ProviderUserID: providerUserID,
	}

	if m.Email != "" {
		email, err := identity.NewEmail(m.Email)
		if err != nil {
			return identity.Account{}, err
		}
		account.Email = email
	}

	return account, nil
}

func fromUser(user *identity.User) *UserModel {
	return &UserModel{
		ID:           user.ID(),
		Name:         user.Name().String(),
		Email:        user.Email().String(),
		PasswordHash: user.PasswordHash().String(),
	}
}

func fromAccount(userID uuid.UUID, account identity.Account) *AccountModel {
	return &AccountModel{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       account.Provider.String(),
		ProviderUserID: account.ProviderUserID.String(),
		Email:          account.Email.String(),
	}
}
