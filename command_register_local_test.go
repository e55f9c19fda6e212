package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new user and issues a token", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		tokens := new(MockTokenService)

		users.On("FindByEmail", ctx, mustEmail("ada@example.com")).Return(nil, nil).Once()
		hasher.On("Hash", "s3cret").Return(identity.PasswordHash("hashed"), nil).Once()
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil).Once()
		tokens.On("Generate", mock.AnythingOfType("*identity.User")).
			Return(identity.AccessToken{Token: "signed", ExpiresAt: time.Now().Add(time.Hour)}, nil).Once()

		handler := identity.NewRegisterLocalHandler(users, hasher, tokens, noopLogger{})
		result, err := handler.Execute(ctx, identity.RegisterLocalMessage{
			Name:     "Ada",
			Email:    "Ada@Example.com",
			Password: "s3cret",
		})

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", result.User.Email)
		assert.Equal(t, "Ada", result.User.Name)
		assert.Equal(t, "signed", result.AccessToken.Token)

		saved := users.Calls[1].Arguments.Get(1).(*identity.User)
		assert.True(t, saved.HasPassword())
		assert.Equal(t, identity.PasswordHash("hashed"), saved.PasswordHash())

		users.AssertExpectations(t)
		hasher.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("existing email fails before hashing", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		tokens := new(MockTokenService)

		existing := mustUser("Ada", "ada@example.com", "hash")
		users.On("FindByEmail", ctx, mustEmail("ada@example.com")).Return(existing, nil).Once()

		handler := identity.NewRegisterLocalHandler(users, hasher, tokens, noopLogger{})
		_, err := handler.Execute(ctx, identity.RegisterLocalMessage{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "s3cret",
		})

		assert.ErrorIs(t, err, identity.ErrEmailAlreadyTaken)
		hasher.AssertNotCalled(t, "Hash", mock.Anything)
		users.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save conflict surfaces as email taken", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		tokens := new(MockTokenService)

		users.On("FindByEmail", ctx, mustEmail("ada@example.com")).Return(nil, nil).Once()
		hasher.On("Hash", "s3cret").Return(identity.PasswordHash("hashed"), nil).Once()
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).
			Return(identity.ErrEmailAlreadyTaken).Once()

		handler := identity.NewRegisterLocalHandler(users, hasher, tokens, noopLogger{})
		_, err := handler.Execute(ctx, identity.RegisterLocalMessage{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "s3cret",
		})

		assert.ErrorIs(t, err, identity.ErrEmailAlreadyTaken)
		tokens.AssertNotCalled(t, "Generate", mock.Anything)
	})

	t.Run("invalid email fails validation", func(t *testing.T) {
		handler := identity.NewRegisterLocalHandler(new(MockUserRepository), new(MockPasswordHasher), new(MockTokenService), noopLogger{})

		_, err := handler.Execute(ctx, identity.RegisterLocalMessage{
			Name:     "Ada",
			Email:    "not-an-email",
			Password: "s3cret",
		})

		assert.Error(t, err)
	})

	t.Run("hashid option derives a deterministic id", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		tokens := new(MockTokenService)

		users.On("FindByEmail", ctx, mustEmail("ada@example.com")).Return(nil, nil).Once()
		hasher.On("Hash", "s3cret").Return(identity.PasswordHash("hashed"), nil).Once()
		users.On("Save", ctx, mock.AnythingOfType("*identity.User")).Return(nil).Once()
		tokens.On("Generate", mock.AnythingOfType("*identity.User")).
			Return(identity.AccessToken{Token: "signed"}, nil).Once()

		handler := identity.NewRegisterLocalHandler(users, hasher, tokens, noopLogger{})
		result, err := handler.Execute(ctx, identity.RegisterLocalMessage{
			Name:      "Ada",
			Email:     "ada@example.com",
			Password:  "s3cret",
			UseHashid: true,
		})
		require.NoError(t, err)

		expected, err := hashid.NewUUID("ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, expected.String(), result.User.ID)
	})
}
