package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/goliatone/go-errors"
)

// Fixed byte lengths for the handshake secrets. All values are base64url
// encoded without padding.
const (
	stateByteLength        = 16
	codeVerifierByteLength = 32
	nonceByteLength        = 16
)

// Handshake holds the anti-forgery secrets generated at the start of one
// authorization attempt.
type Handshake struct {
	State        string
	CodeVerifier string
	Nonce        string
}

// NewHandshake draws the state token, PKCE code verifier, and optional nonce
// from the given random source.
func NewHandshake(random io.Reader, withNonce bool) (Handshake, error) {
	state, err := randomToken(random, stateByteLength)
	if err != nil {
		return Handshake{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate state")
	}

	verifier, err := randomToken(random, codeVerifierByteLength)
	if err != nil {
		return Handshake{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate code verifier")
	}

	handshake := Handshake{
		State:        state,
		CodeVerifier: verifier,
	}

	if withNonce {
		nonce, err := randomToken(random, nonceByteLength)
		if err != nil {
			return Handshake{}, errors.Wrap(err, errors.CategoryInternal, "failed to generate nonce")
		}
		handshake.Nonce = nonce
	}

	return handshake, nil
}

// CodeChallengeS256 derives the PKCE code challenge from a verifier using
// the S256 method.
func CodeChallengeS256(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

func randomToken(random io.Reader, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
