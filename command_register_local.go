package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// RegisterLocalMessage carries the inputs for a local registration.
type RegisterLocalMessage struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// UseHashid derives a deterministic user id from the email instead of a
	// random one.
	UseHashid bool `json:"-"`
}

func (m RegisterLocalMessage) Type() string { return "identity.register_local" }

// RegisterLocalHandler registers a user with email/password credentials and
// issues a first access token.
type RegisterLocalHandler struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
	logger Logger
}

// NewRegisterLocalHandler wires the registration use case.
func NewRegisterLocalHandler(users UserRepository, hasher PasswordHasher, tokens TokenService, logger Logger) *RegisterLocalHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterLocalHandler{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Execute runs the registration flow. The repository remains the final
// arbiter of the email-uniqueness race: a conflict surfaced by Save is
// returned as ErrEmailAlreadyTaken even when the pre-check passed.
func (h *RegisterLocalHandler) Execute(ctx context.Context, msg RegisterLocalMessage) (*AuthResult, error) {
	email, err := NewEmail(msg.Email)
	if err != nil {
		return nil, err
	}

	name, err := NewName(msg.Name)
	if err != nil {
		return nil, err
	}

	existing, err := h.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up email")
	}
	if existing != nil {
		return nil, emailTakenError(email)
	}

	hash, err := h.hasher.Hash(msg.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.Nil
	if msg.UseHashid {
		if derived, err := hashid.NewUUID(email.String()); err == nil {
			id = derived
		}
	}

	user, err := NewUser(id, name, email, hash, nil)
	if err != nil {
		return nil, err
	}

	if err := h.users.Save(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyTaken) {
			return nil, emailTakenError(email)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to save user")
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	h.logger.Info("registered local user %s", user.ID())

	return &AuthResult{
		User:        NewAuthenticatedUser(user),
		AccessToken: token,
	}, nil
}

func emailTakenError(email Email) error {
	return errors.Wrap(ErrEmailAlreadyTaken, errors.CategoryConflict, "email "+email.String()+" is already taken").
		WithTextCode(TextCodeEmailTaken)
}
