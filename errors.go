package identity

import "github.com/goliatone/go-errors"

const (
	TextCodeEmailTaken           = "identity_email_taken"
	TextCodeAccountLinked        = "identity_account_already_linked"
	TextCodeInvalidCredentials   = "identity_invalid_credentials"
	TextCodeProviderNotFound     = "identity_provider_not_configured"
	TextCodeStateExpired         = "identity_oauth_state_expired"
	TextCodeProfileEmailRequired = "identity_oauth_profile_email_required"
	TextCodeUserNotFound         = "identity_user_not_found"
	TextCodeInvalidValue         = "identity_invalid_value"
	TextCodeTokenExpired         = "identity_token_expired"
	TextCodeTokenMalformed       = "identity_token_malformed"
)

// ErrEmailAlreadyTaken is returned when a registration or email change
// collides with an existing user's email.
var ErrEmailAlreadyTaken = errors.New("email is already taken", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrAccountAlreadyLinked is returned when a (provider, providerUserId)
// pair is already present, either on the aggregate or in the store.
var ErrAccountAlreadyLinked = errors.New("account is already linked", errors.CategoryConflict).
	WithTextCode(TextCodeAccountLinked).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for a failed local login. The message is
// identical whether the user does not exist, has no password set, or the
// password is wrong, so callers cannot enumerate accounts through it.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrProviderNotConfigured is returned when no adapter is registered for the
// requested provider code.
var ErrProviderNotConfigured = errors.New("provider is not configured", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrOAuthStateExpired is returned when a callback carries an unknown,
// already consumed, mismatched, or expired state token.
var ErrOAuthStateExpired = errors.New("oauth state is expired or invalid", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrOAuthProfileEmailRequired is returned when a provider profile has no
// email and no existing account match exists.
var ErrOAuthProfileEmailRequired = errors.New("oauth profile is missing email", errors.CategoryBadInput).
	WithTextCode(TextCodeProfileEmailRequired).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when a user lookup by id finds nothing.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned by token verification for expired tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned by token verification for tokens that fail
// signature, issuer, or audience checks.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// IsDomainError reports whether err belongs to the caller-facing taxonomy,
// as opposed to an unexpected internal failure.
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	for _, known := range []*errors.Error{
		ErrEmailAlreadyTaken,
		ErrAccountAlreadyLinked,
		ErrInvalidCredentials,
		ErrProviderNotConfigured,
		ErrOAuthStateExpired,
		ErrOAuthProfileEmailRequired,
		ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return true
		}
	}

	return false
}
