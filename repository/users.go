package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users implements identity.UserRepository using Bun.
type Users struct {
	db *bun.DB
}

// NewUsers creates the user repository adapter.
func NewUsers(db *bun.DB) *Users {
	return &Users{db: db}
}

// FindByID loads a user with its linked accounts. Returns (nil, nil) when no
// record matches.
func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	model := &UserModel{}
	err := r.db.NewSelect().
		Model(model).
		Relation("Accounts").
		Where("usr.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by id")
	}

	return toUser(model)
}

// FindByEmail loads a user by its normalized email.
func (r *Users) FindByEmail(ctx context.Context, email identity.Email) (*identity.User, error) {
	model := &UserModel{}
	err := r.db.NewSelect().
		Model(model).
		Relation("Accounts").
		Where("lower(usr.email) = ?", strings.ToLower(email.String())).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by email")
	}

	return toUser(model)
}

// FindByAccount loads the owning user of a (provider, providerUserId) pair.
func (r *Users) FindByAccount(ctx context.Context, provider identity.ProviderCode, providerUserID identity.ProviderUserID) (*identity.User, error) {
	model := &UserModel{}
	err := r.db.NewSelect().
		Model(model).
		Relation("Accounts").
		Join("JOIN identity_accounts AS owned ON owned.user_id = usr.id").
		Where("owned.provider = ?", provider.String()).
		Where("lower(owned.provider_user_id) = ?", strings.ToLower(providerUserID.String())).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by account")
	}

	return toUser(model)
}

// Save inserts the user and its account set in one transaction. Uniqueness
// violations come back as identity.ErrEmailAlreadyTaken or
// identity.ErrAccountAlreadyLinked.
func (r *Users) Save(ctx context.Context, user *identity.User) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(fromUser(user)).Exec(ctx); err != nil {
			return translateConstraint(err)
		}

		for _, account := range user.Accounts() {
			if _, err := tx.NewInsert().Model(fromAccount(user.ID(), account)).Exec(ctx); err != nil {
				return translateConstraint(err)
			}
		}

		return nil
	})
}

// Update persists aggregate changes: the user row plus any accounts linked
// since the load. Conflicts surface the same way as in Save.
func (r *Users) Update(ctx context.Context, user *identity.User) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(fromUser(user)).
			Column("name", "email", "password_hash").
			Where("id = ?", user.ID()).
			Exec(ctx)
		if err != nil {
			return translateConstraint(err)
		}

		affected, err := res.RowsAffected()
		if err == nil && affected == 0 {
			return errors.Wrap(identity.ErrUserNotFound, errors.CategoryNotFound,
				"user "+user.ID().String()+" was not found")
		}

		return insertMissingAccounts(ctx, tx, user)
	})
}

func insertMissingAccounts(ctx context.Context, tx bun.Tx, user *identity.User) error {
	var existing []*AccountModel
	if err := tx.NewSelect().
		Model(&existing).
		Where("user_id = ?", user.ID()).
		Scan(ctx); err != nil && !isNotFound(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to load linked accounts")
	}

	present := make(map[string]struct{}, len(existing))
	for _, account := range existing {
		present[account.Provider+"::"+strings.ToLower(account.ProviderUserID)] = struct{}{}
	}

	for _, account := range user.Accounts() {
		key := account.Provider.String() + "::" + strings.ToLower(account.ProviderUserID.String())
		if _, ok := present[key]; ok {
			continue
		}

		if _, err := tx.NewInsert().Model(fromAccount(user.ID(), account)).Exec(ctx); err != nil {
			return translateConstraint(err)
		}
	}

	return nil
}

func isNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

// translateConstraint maps driver-level uniqueness violations onto the
// domain taxonomy. Matching is textual because SQLite and Postgres report
// violations through different error types.
func translateConstraint(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	unique := strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505")

	if !unique {
		return err
	}

	if strings.Contains(msg, "provider_user_id") || strings.Contains(msg, "identity_accounts") {
		return errors.Wrap(identity.ErrAccountAlreadyLinked, errors.CategoryConflict, "account is already linked").
			WithTextCode(identity.TextCodeAccountLinked)
	}

	return errors.Wrap(identity.ErrEmailAlreadyTaken, errors.CategoryConflict, "email is already taken").
		WithTextCode(identity.TextCodeEmailTaken)
}

var _ identity.UserRepository = (*Users)(nil)
