package identity_test

import (
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		email, err := identity.NewEmail("  Ada@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", email.String())
	})

	t.Run("rejects invalid addresses", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "not-an-email", "@example.com", "ada@"} {
			_, err := identity.NewEmail(raw)
			assert.Error(t, err, "raw=%q", raw)

			var rich *errors.Error
			require.ErrorAs(t, err, &rich)
			assert.Equal(t, errors.CategoryValidation, rich.Category)
		}
	})

	t.Run("equal after normalization", func(t *testing.T) {
		a, err := identity.NewEmail("Ada@Example.com")
		require.NoError(t, err)
		b, err := identity.NewEmail("ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestNewName(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		name, err := identity.NewName("  Ada Lovelace  ")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", name.String())
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := identity.NewName("   ")
		assert.Error(t, err)
	})

	t.Run("rejects overlong", func(t *testing.T) {
		long := make([]byte, 121)
		for i := range long {
			long[i] = 'a'
		}
		_, err := identity.NewName(string(long))
		assert.Error(t, err)
	})
}

func TestParseProviderCode(t *testing.T) {
	t.Run("accepts known providers case-insensitively", func(t *testing.T) {
		for raw, want := range map[string]identity.ProviderCode{
			"google": identity.ProviderGoogle,
			"GitHub": identity.ProviderGitHub,
			" LOCAL": identity.ProviderLocal,
		} {
			got, err := identity.ParseProviderCode(raw)
			require.NoError(t, err, "raw=%q", raw)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects unknown providers", func(t *testing.T) {
		_, err := identity.ParseProviderCode("facebook")
		assert.Error(t, err)
	})
}

func TestProviderUserID(t *testing.T) {
	t.Run("preserves casing", func(t *testing.T) {
		id, err := identity.NewProviderUserID("Octocat-42")
		require.NoError(t, err)
		assert.Equal(t, "Octocat-42", id.String())
	})

	t.Run("compares case-insensitively", func(t *testing.T) {
		a := mustProviderUserID("Octocat-42")
		b := mustProviderUserID("octocat-42")
		assert.True(t, a.Equals(b))
		assert.False(t, a.Equals(mustProviderUserID("someone-else")))
	})

	t.Run("rejects blank ids", func(t *testing.T) {
		_, err := identity.NewProviderUserID("   ")
		assert.Error(t, err)
	})
}

func TestPasswordHash(t *testing.T) {
	t.Run("zero value means no local credentials", func(t *testing.T) {
		var hash identity.PasswordHash
		assert.True(t, hash.IsZero())
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := identity.NewPasswordHash("")
		assert.Error(t, err)
	})
}

func TestParseUserID(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		id := identity.NewUserID()
		parsed, err := identity.ParseUserID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		_, err := identity.ParseUserID("not-a-uuid")
		assert.Error(t, err)
	})
}
