package repository

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

// Accounts implements identity.AccountRepository using Bun.
type Accounts struct {
	db *bun.DB
}

// NewAccounts creates the account repository adapter.
func NewAccounts(db *bun.DB) *Accounts {
	return &Accounts{db: db}
}

// FindByProviderUserID resolves an account and its owning user. Returns
// (nil, nil) when the pair is not linked anywhere.
func (r *Accounts) FindByProviderUserID(ctx context.Context, provider identity.ProviderCode, providerUserID identity.ProviderUserID) (*identity.LinkedAccount, error) {
	model := &AccountModel{}
	err := r.db.NewSelect().
		Model(model).
		Relation("User").
		Relation("User.Accounts").
		Where("acc.provider = ?", provider.String()).
		Where("lower(acc.provider_user_id) = ?", strings.ToLower(providerUserID.String())).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load account")
	}

	if model.User == nil {
		return nil, errors.New("account row without owning user", errors.CategoryInternal)
	}

	user, err := toUser(model.User)
	if err != nil {
		return nil, err
	}

	account, err := toAccount(model)
	if err != nil {
		return nil, err
	}

	return &identity.LinkedAccount{
		User:    user,
		Account: account,
	}, nil
}

// LinkToUser persists a newly linked account. The unique constraint on the
// (provider, provider_user_id) pair arbitrates concurrent link attempts;
// the loser observes identity.ErrAccountAlreadyLinked.
func (r *Accounts) LinkToUser(ctx context.Context, user *identity.User, account identity.Account) error {
	if _, err := r.db.NewInsert().Model(fromAccount(user.ID(), account)).Exec(ctx); err != nil {
		return translateConstraint(err)
	}
	return nil
}

var _ identity.AccountRepository = (*Accounts)(nil)
