package identity

import (
	"encoding/json"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to the signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*IdentityClaims, error)
}

// JWKSValidator validates tokens against a published JWK set. It is the
// external-verifier side of TokenService.PublicJWKS: it holds no private key.
type JWKSValidator struct {
	jwks     *keyfunc.JWKS
	issuer   string
	audience jwt.ClaimStrings
}

// NewJWKSValidatorFromJSON builds a validator from a raw JWKS document.
func NewJWKSValidatorFromJSON(raw json.RawMessage, issuer string, audience jwt.ClaimStrings) (*JWKSValidator, error) {
	jwks, err := keyfunc.NewJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse JWKS document")
	}

	return &JWKSValidator{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
	}, nil
}

// NewJWKSValidator builds a validator that fetches and refreshes the key set
// from a JWKS URL.
func NewJWKSValidator(jwksURL string, issuer string, audience jwt.ClaimStrings) (*JWKSValidator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to fetch JWKS")
	}

	return &JWKSValidator{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Validate parses the token, resolving the verification key by kid.
func (v *JWKSValidator) Validate(tokenString string) (*IdentityClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}
	// Single expected audience, same policy as the token service.
	if len(v.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(v.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

var _ TokenValidator = (*JWKSValidator)(nil)
