package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// LoginLocalMessage carries the inputs for a local login.
type LoginLocalMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m LoginLocalMessage) Type() string { return "identity.login_local" }

// LoginLocalHandler authenticates email/password credentials and issues an
// access token.
type LoginLocalHandler struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
	logger Logger
}

// NewLoginLocalHandler wires the login use case.
func NewLoginLocalHandler(users UserRepository, hasher PasswordHasher, tokens TokenService, logger Logger) *LoginLocalHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &LoginLocalHandler{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Execute runs the login flow. A missing user, an OAuth-only user without a
// password hash, and a wrong password all fail with the same
// ErrInvalidCredentials value.
func (h *LoginLocalHandler) Execute(ctx context.Context, msg LoginLocalMessage) (*AuthResult, error) {
	email, err := NewEmail(msg.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := h.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up email")
	}

	if user == nil || !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if !h.hasher.Verify(msg.Password, user.PasswordHash()) {
		return nil, ErrInvalidCredentials
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:        NewAuthenticatedUser(user),
		AccessToken: token,
	}, nil
}
