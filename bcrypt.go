package identity

import (
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// BcryptHasher implements PasswordHasher on top of golang.org/x/crypto/bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost; values outside the
// bcrypt range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash generates a password hash.
func (h *BcryptHasher) Hash(plain string) (PasswordHash, error) {
	if plain == "" {
		return "", errors.New("password must not be empty", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidValue)
	}

	raw, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	return PasswordHash(raw), nil
}

// Verify reports whether the given cleartext password matches the hash.
// A mismatch is false, never an error.
func (h *BcryptHasher) Verify(plain string, hash PasswordHash) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

var _ PasswordHasher = (*BcryptHasher)(nil)
