package identity

import (
	"context"

	"github.com/goliatone/go-errors"
)

// GetMeHandler loads the public projection of a user by id.
type GetMeHandler struct {
	users UserRepository
}

// NewGetMeHandler wires the get-me query.
func NewGetMeHandler(users UserRepository) *GetMeHandler {
	return &GetMeHandler{users: users}
}

// Execute resolves the user or fails with ErrUserNotFound.
func (h *GetMeHandler) Execute(ctx context.Context, userID string) (*AuthenticatedUser, error) {
	id, err := ParseUserID(userID)
	if err != nil {
		return nil, err
	}

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}
	if user == nil {
		return nil, errors.Wrap(ErrUserNotFound, errors.CategoryNotFound, "user "+id.String()+" was not found").
			WithTextCode(TextCodeUserNotFound)
	}

	projection := NewAuthenticatedUser(user)
	return &projection, nil
}

// LogoutHandler is stateless: it validates the caller's id and returns it.
// There is no server-side token invalidation; expiry is the only mechanism.
type LogoutHandler struct{}

// NewLogoutHandler wires the logout use case.
func NewLogoutHandler() *LogoutHandler {
	return &LogoutHandler{}
}

// Execute normalizes and validates the user id.
func (h *LogoutHandler) Execute(_ context.Context, userID string) (string, error) {
	id, err := ParseUserID(userID)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
