package identity

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL bounds the lifetime of issued credentials.
const DefaultAccessTokenTTL = 15 * time.Minute

// TokenServiceImpl implements TokenService with RS256 signed JWTs. The
// public key is published as a JWK set so external verifiers can validate
// tokens by key id without sharing the private key.
type TokenServiceImpl struct {
	privateKey *rsa.PrivateKey
	kid        string
	issuer     string
	audience   jwt.ClaimStrings
	ttl        time.Duration
	clock      func() time.Time
	logger     Logger
}

// TokenServiceOption configures the token service.
type TokenServiceOption func(*TokenServiceImpl)

// WithAccessTokenTTL overrides the issued-token lifetime.
func WithAccessTokenTTL(ttl time.Duration) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if ttl > 0 {
			ts.ttl = ttl
		}
	}
}

// WithClock injects a clock for deterministic issuance in tests.
func WithClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.clock = clock
		}
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService signing with the given RSA key.
func NewTokenService(privateKey *rsa.PrivateKey, kid, issuer string, audience jwt.ClaimStrings, opts ...TokenServiceOption) *TokenServiceImpl {
	ts := &TokenServiceImpl{
		privateKey: privateKey,
		kid:        kid,
		issuer:     issuer,
		audience:   audience,
		ttl:        DefaultAccessTokenTTL,
		clock:      time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Generate builds the credential payload for the user and signs it.
func (ts *TokenServiceImpl) Generate(user *User) (AccessToken, error) {
	if user == nil {
		return AccessToken{}, errors.New("user must not be nil", errors.CategoryInternal)
	}

	now := ts.clock()
	expiresAt := now.Add(ts.ttl)

	claims := BuildClaims(user)
	claims.Issuer = ts.issuer
	claims.Audience = ts.audience
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	claims.ID = uuid.NewString()

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return AccessToken{}, err
	}

	return AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// SignClaims signs arbitrary claims using the configured key and kid header.
func (ts *TokenServiceImpl) SignClaims(claims *IdentityClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = ts.kid

	signed, err := token.SignedString(ts.privateKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Verify parses and validates a token string, enforcing signature, issuer,
// audience, and expiry.
func (ts *TokenServiceImpl) Verify(tokenString string) (*IdentityClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	// The parser validates a single expected audience; tokens are issued
	// with the full configured list, so the primary entry is enforced.
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return &ts.privateKey.PublicKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// PublicJWKS returns the verification key set as a JWKS document.
func (ts *TokenServiceImpl) PublicJWKS() (map[string]any, error) {
	if ts.privateKey == nil {
		return nil, errors.New("no signing key configured", errors.CategoryInternal)
	}

	pub := ts.privateKey.PublicKey

	return map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"kid": ts.kid,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}, nil
}

var _ TokenService = (*TokenServiceImpl)(nil)
