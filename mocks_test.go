package identity_test

import (
	"context"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository implements identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email identity.Email) (*identity.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByAccount(ctx context.Context, provider identity.ProviderCode, providerUserID identity.ProviderUserID) (*identity.User, error) {
	args := m.Called(ctx, provider, providerUserID)
	if user := args.Get(0); user != nil {
		return user.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAccountRepository implements identity.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByProviderUserID(ctx context.Context, provider identity.ProviderCode, providerUserID identity.ProviderUserID) (*identity.LinkedAccount, error) {
	args := m.Called(ctx, provider, providerUserID)
	if linked := args.Get(0); linked != nil {
		return linked.(*identity.LinkedAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountRepository) LinkToUser(ctx context.Context, user *identity.User, account identity.Account) error {
	args := m.Called(ctx, user, account)
	return args.Error(0)
}

// MockPasswordHasher implements identity.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(plain string) (identity.PasswordHash, error) {
	args := m.Called(plain)
	return args.Get(0).(identity.PasswordHash), args.Error(1)
}

func (m *MockPasswordHasher) Verify(plain string, hash identity.PasswordHash) bool {
	args := m.Called(plain, hash)
	return args.Bool(0)
}

// MockTokenService implements identity.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(user *identity.User) (identity.AccessToken, error) {
	args := m.Called(user)
	return args.Get(0).(identity.AccessToken), args.Error(1)
}

func (m *MockTokenService) Verify(token string) (*identity.IdentityClaims, error) {
	args := m.Called(token)
	if claims := args.Get(0); claims != nil {
		return claims.(*identity.IdentityClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenService) PublicJWKS() (map[string]any, error) {
	args := m.Called()
	if doc := args.Get(0); doc != nil {
		return doc.(map[string]any), args.Error(1)
	}
	return nil, args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func mustEmail(raw string) identity.Email {
	email, err := identity.NewEmail(raw)
	if err != nil {
		panic(err)
	}
	return email
}

func mustName(raw string) identity.Name {
	name, err := identity.NewName(raw)
	if err != nil {
		panic(err)
	}
	return name
}

func mustProviderUserID(raw string) identity.ProviderUserID {
	id, err := identity.NewProviderUserID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func mustUser(name, email, passwordHash string, accounts ...identity.Account) *identity.User {
	user, err := identity.NewUser(
		identity.NewUserID(),
		mustName(name),
		mustEmail(email),
		identity.PasswordHash(passwordHash),
		accounts,
	)
	if err != nil {
		panic(err)
	}
	return user
}
