package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the smallest HMAC key accepted by NewHS256Signer. HS256
// keys shorter than the hash output weaken the MAC.
const MinKeyBytes = 32

// ErrKeyTooShort is returned when the signing key has fewer than
// MinKeyBytes bytes.
var ErrKeyTooShort = errors.New("jwtx: signing key shorter than 32 bytes")

// HS256Signer signs and verifies access tokens with a single symmetric key.
// The same key is shared by issuance and verification, so rotation means
// restarting with a new key and invalidating outstanding tokens.
type HS256Signer struct {
	key []byte
}

// NewHS256Signer validates the key length and returns a signer.
func NewHS256Signer(key []byte) (*HS256Signer, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrKeyTooShort
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &HS256Signer{key: k}, nil
}

// Sign produces the compact serialization of the claims.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}
