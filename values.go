package identity

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Email is a normalized (trimmed, lowercased) email address. Uniqueness is
// case-insensitive across the whole system, which normalization guarantees.
type Email string

// NewEmail validates and normalizes an email address.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if err := validation.Validate(normalized, validation.Required, is.Email); err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, fmt.Sprintf("invalid email: %q", raw)).
			WithTextCode(TextCodeInvalidValue)
	}

	return Email(normalized), nil
}

func (e Email) String() string { return string(e) }

// IsZero reports whether the email is absent.
func (e Email) IsZero() bool { return e == "" }

// Name is a user display name.
type Name string

const nameMaxLength = 120

// NewName validates and trims a display name.
func NewName(raw string) (Name, error) {
	normalized := strings.TrimSpace(raw)

	if err := validation.Validate(normalized, validation.Required, validation.Length(1, nameMaxLength)); err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid name").
			WithTextCode(TextCodeInvalidValue)
	}

	return Name(normalized), nil
}

func (n Name) String() string { return string(n) }

// ProviderCode identifies an authentication provider. The enumeration is
// closed; ProviderLocal is the synthetic code for password credentials.
type ProviderCode string

const (
	ProviderGoogle ProviderCode = "google"
	ProviderGitHub ProviderCode = "github"
	ProviderLocal  ProviderCode = "local"
)

// ParseProviderCode normalizes and validates a provider code.
func ParseProviderCode(raw string) (ProviderCode, error) {
	normalized := ProviderCode(strings.ToLower(strings.TrimSpace(raw)))

	switch normalized {
	case ProviderGoogle, ProviderGitHub, ProviderLocal:
		return normalized, nil
	}

	return "", errors.New(fmt.Sprintf("unsupported provider: %q", raw), errors.CategoryValidation).
		WithTextCode(TextCodeInvalidValue)
}

func (p ProviderCode) String() string { return string(p) }

// ProviderUserID is the opaque, provider-assigned identifier for an external
// account. Comparison is case-insensitive; the original casing is preserved.
type ProviderUserID string

// NewProviderUserID validates a provider-assigned user id.
func NewProviderUserID(raw string) (ProviderUserID, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return "", errors.New("provider user id is required", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidValue)
	}

	return ProviderUserID(normalized), nil
}

func (id ProviderUserID) String() string { return string(id) }

// Equals compares two provider user ids case-insensitively.
func (id ProviderUserID) Equals(other ProviderUserID) bool {
	return strings.EqualFold(string(id), string(other))
}

// PasswordHash is an opaque password hash produced by a PasswordHasher.
type PasswordHash string

// NewPasswordHash wraps a non-empty hash value.
func NewPasswordHash(raw string) (PasswordHash, error) {
	if raw == "" {
		return "", errors.New("password hash is required", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidValue)
	}

	return PasswordHash(raw), nil
}

func (h PasswordHash) String() string { return string(h) }

// IsZero reports whether no hash is present (OAuth-only user).
func (h PasswordHash) IsZero() bool { return h == "" }

// NewUserID generates a fresh user id.
func NewUserID() uuid.UUID {
	return uuid.New()
}

// ParseUserID validates a user id string.
func ParseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryValidation, "invalid user id").
			WithTextCode(TextCodeInvalidValue)
	}

	return id, nil
}
