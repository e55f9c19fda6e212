package oauth

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
)

// DefaultStateTTL bounds how long a started authorization attempt stays
// consumable.
const DefaultStateTTL = 10 * time.Minute

// Flow orchestrates the two halves of the authorization-code flow: Start
// issues the redirect, Callback consumes it.
type Flow struct {
	providers Registry
	states    StateStore
	users     identity.UserRepository
	accounts  identity.AccountRepository
	tokens    identity.TokenService
	logger    identity.Logger
	stateTTL  time.Duration
	random    io.Reader
	clock     func() time.Time
}

// FlowOption configures the flow.
type FlowOption func(*Flow)

// WithStateTTL overrides the state record lifetime.
func WithStateTTL(ttl time.Duration) FlowOption {
	return func(f *Flow) {
		if ttl > 0 {
			f.stateTTL = ttl
		}
	}
}

// WithRandSource injects the random byte source used for handshake secrets,
// enabling deterministic tests.
func WithRandSource(random io.Reader) FlowOption {
	return func(f *Flow) {
		if random != nil {
			f.random = random
		}
	}
}

// WithClock injects the clock.
func WithClock(clock func() time.Time) FlowOption {
	return func(f *Flow) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger identity.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFlow wires the OAuth orchestration use cases.
func NewFlow(
	providers Registry,
	states StateStore,
	users identity.UserRepository,
	accounts identity.AccountRepository,
	tokens identity.TokenService,
	opts ...FlowOption,
) *Flow {
	f := &Flow{
		providers: providers,
		states:    states,
		users:     users,
		accounts:  accounts,
		tokens:    tokens,
		logger:    identity.DefaultLogger(),
		stateTTL:  DefaultStateTTL,
		random:    rand.Reader,
		clock:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// StartRequest carries the inputs for starting an authorization attempt.
type StartRequest struct {
	Provider     string `json:"provider"`
	RedirectURI  string `json:"redirect_uri"`
	IncludeNonce bool   `json:"include_nonce"`
}

// StartResult carries the URL the caller must redirect the user to.
type StartResult struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// Start resolves the provider adapter, generates the handshake secrets,
// persists the state record, and returns the authorization URL.
func (f *Flow) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	provider, err := identity.ParseProviderCode(req.Provider)
	if err != nil {
		return nil, err
	}

	adapter := f.providers.Resolve(provider)
	if adapter == nil {
		return nil, providerNotConfiguredError(provider)
	}

	handshake, err := NewHandshake(f.random, req.IncludeNonce)
	if err != nil {
		return nil, err
	}

	authorizationURL, err := adapter.BuildAuthorizationURL(ctx, AuthorizationRequest{
		RedirectURI:   req.RedirectURI,
		State:         handshake.State,
		CodeChallenge: CodeChallengeS256(handshake.CodeVerifier),
		Nonce:         handshake.Nonce,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build authorization URL")
	}

	now := f.clock()
	record := StateRecord{
		State:        handshake.State,
		Provider:     provider,
		CodeVerifier: handshake.CodeVerifier,
		Nonce:        handshake.Nonce,
		RedirectURI:  req.RedirectURI,
		CreatedAt:    now,
		ExpiresAt:    now.Add(f.stateTTL),
	}

	if err := f.states.Save(ctx, record); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to save oauth state")
	}

	return &StartResult{
		AuthorizationURL: authorizationURL,
		State:            handshake.State,
	}, nil
}

// CallbackRequest carries the provider redirect parameters.
type CallbackRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	State    string `json:"state"`
}

// CallbackResult is the terminal success value of the callback flow.
type CallbackResult struct {
	User        identity.AuthenticatedUser `json:"user"`
	AccessToken identity.AccessToken       `json:"access_token"`
	IsNewUser   bool                       `json:"is_new_user"`
}

// Callback finishes an authorization attempt: it consumes the state record,
// validates it, exchanges the code for a profile, reconciles the profile
// against local users, and issues a credential.
//
// The state is consumed before provider and expiry validation, so a
// mismatched or expired attempt is still irreversibly destroyed: a state
// token is single-use regardless of why the callback failed.
func (f *Flow) Callback(ctx context.Context, req CallbackRequest) (*CallbackResult, error) {
	provider, err := identity.ParseProviderCode(req.Provider)
	if err != nil {
		return nil, err
	}

	adapter := f.providers.Resolve(provider)
	if adapter == nil {
		return nil, providerNotConfiguredError(provider)
	}

	record, err := f.states.Consume(ctx, req.State)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume oauth state")
	}
	if record == nil {
		return nil, identity.ErrOAuthStateExpired
	}

	if record.Provider != provider || !record.ExpiresAt.After(f.clock()) {
		return nil, identity.ErrOAuthStateExpired
	}

	profile, err := adapter.FetchProfile(ctx, ProfileRequest{
		Code:         req.Code,
		RedirectURI:  record.RedirectURI,
		CodeVerifier: record.CodeVerifier,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "failed to fetch provider profile")
	}

	user, isNew, err := f.reconcile(ctx, provider, profile)
	if err != nil {
		return nil, err
	}

	token, err := f.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("oauth callback resolved user %s (new=%v) via %s", user.ID(), isNew, provider)

	return &CallbackResult{
		User:        identity.NewAuthenticatedUser(user),
		AccessToken: token,
		IsNewUser:   isNew,
	}, nil
}

// reconcile resolves the provider profile to a local user, in order: an
// already linked account wins; otherwise an email match gets the account
// linked; otherwise a new federated user is created.
func (f *Flow) reconcile(ctx context.Context, provider identity.ProviderCode, profile *Profile) (*identity.User, bool, error) {
	providerUserID, err := identity.NewProviderUserID(profile.ProviderUserID)
	if err != nil {
		return nil, false, err
	}

	linked, err := f.accounts.FindByProviderUserID(ctx, provider, providerUserID)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CategoryInternal, "failed to look up linked account")
	}
	if linked != nil {
		return linked.User, false, nil
	}

	if profile.Email == "" {
		return nil, false, fmt.Errorf("%w: provider %s", identity.ErrOAuthProfileEmailRequired, provider)
	}

	email, err := identity.NewEmail(profile.Email)
	if err != nil {
		return nil, false, err
	}

	existing, err := f.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CategoryInternal, "failed to look up user by email")
	}

	if existing != nil {
		account, err := existing.LinkAccount(provider, providerUserID, email)
		if err != nil {
			return nil, false, err
		}

		// The store enforces the pair uniqueness under concurrency; a racing
		// duplicate surfaces ErrAccountAlreadyLinked instead of silently
		// succeeding.
		if err := f.accounts.LinkToUser(ctx, existing, account); err != nil {
			return nil, false, err
		}

		return existing, false, nil
	}

	name, err := identity.NewName(fallbackDisplayName(profile.Name, email))
	if err != nil {
		return nil, false, err
	}

	account := identity.Account{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
	}

	user, err := identity.NewUser(identity.NewUserID(), name, email, "", []identity.Account{account})
	if err != nil {
		return nil, false, err
	}

	if err := f.users.Save(ctx, user); err != nil {
		if errors.Is(err, identity.ErrAccountAlreadyLinked) || errors.Is(err, identity.ErrEmailAlreadyTaken) {
			return nil, false, err
		}
		return nil, false, errors.Wrap(err, errors.CategoryInternal, "failed to save user")
	}

	return user, true, nil
}

func fallbackDisplayName(profileName string, email identity.Email) string {
	if name := strings.TrimSpace(profileName); name != "" {
		return name
	}

	local := email.String()
	if at := strings.Index(local, "@"); at > 0 {
		return local[:at]
	}
	return local
}

func providerNotConfiguredError(provider identity.ProviderCode) error {
	return fmt.Errorf("%w: %s", identity.ErrProviderNotConfigured, provider)
}
