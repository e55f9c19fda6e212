package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/oauth"
	"github.com/uptrace/bun"
)

// OAuthStates implements oauth.StateStore using Bun.
type OAuthStates struct {
	db *bun.DB
}

// NewOAuthStates creates the state store adapter.
func NewOAuthStates(db *bun.DB) *OAuthStates {
	return &OAuthStates{db: db}
}

// Save stores a state record under its state token.
func (r *OAuthStates) Save(ctx context.Context, record oauth.StateRecord) error {
	model := &OAuthStateModel{
		State:        record.State,
		Provider:     record.Provider.String(),
		CodeVerifier: record.CodeVerifier,
		Nonce:        record.Nonce,
		RedirectURI:  record.RedirectURI,
		CreatedAt:    record.CreatedAt,
		ExpiresAt:    record.ExpiresAt,
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to save oauth state")
	}

	return nil
}

// Get returns the record without consuming it, or (nil, nil) when absent.
func (r *OAuthStates) Get(ctx context.Context, state string) (*oauth.StateRecord, error) {
	model := &OAuthStateModel{}
	err := r.db.NewSelect().
		Model(model).
		Where("state = ?", state).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load oauth state")
	}

	return toStateRecord(model)
}

// Consume deletes and returns the record in a single statement, so two
// concurrent callbacks with the same state cannot both observe it.
func (r *OAuthStates) Consume(ctx context.Context, state string) (*oauth.StateRecord, error) {
	model := &OAuthStateModel{}
	res, err := r.db.NewDelete().
		Model(model).
		Where("state = ?", state).
		Returning("*").
		Exec(ctx, model)

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume oauth state")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, nil
	}

	return toStateRecord(model)
}

// PurgeExpired deletes records whose expiry is at or before now.
func (r *OAuthStates) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*OAuthStateModel)(nil)).
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to purge oauth states")
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

func toStateRecord(m *OAuthStateModel) (*oauth.StateRecord, error) {
	provider, err := identity.ParseProviderCode(m.Provider)
	if err != nil {
		return nil, err
	}

	return &oauth.StateRecord{
		State:        m.State,
		Provider:     provider,
		CodeVerifier: m.CodeVerifier,
		Nonce:        m.Nonce,
		RedirectURI:  m.RedirectURI,
		CreatedAt:    m.CreatedAt,
		ExpiresAt:    m.ExpiresAt,
	}, nil
}

var _ oauth.StateStore = (*OAuthStates)(nil)
