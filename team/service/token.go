// team/service/token.go
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	saltSize       = 16
	minTokenLength = 32
)

// DigestFactory returns a fresh 256-bit digest.
type DigestFactory func() (hash.Hash, error)

// Digests selectable by name through configuration.
var Digests = map[string]DigestFactory{
	"sha256":      func() (hash.Hash, error) { return sha256.New(), nil },
	"sha3-256":    func() (hash.Hash, error) { return sha3.New256(), nil },
	"blake2b-256": func() (hash.Hash, error) { return blake2b.New256(nil) },
}

// TokenIssuer derives opaque player tokens from a name and a random salt.
// Tokens are identifiers, not verifiable hashes: the salt is discarded.
type TokenIssuer struct {
	random    io.Reader
	newDigest DigestFactory
}

// NewTokenIssuer returns an issuer using crypto/rand and SHA-256.
func NewTokenIssuer() *TokenIssuer {
	return &TokenIssuer{random: rand.Reader, newDigest: Digests["sha256"]}
}

// NewTokenIssuerWithDigest returns an issuer using the named digest from Digests.
func NewTokenIssuerWithDigest(name string) (*TokenIssuer, error) {
	factory, ok := Digests[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown digest %q", ErrCryptoUnavailable, name)
	}
	return &TokenIssuer{random: rand.Reader, newDigest: factory}, nil
}

// Issue returns a lowercase hex token for name. It never falls back to a weaker primitive.
func (ti *TokenIssuer) Issue(name string) (string, error) {
	if ti.random == nil || ti.newDigest == nil {
		return "", fmt.Errorf("%w: issuer not configured", ErrCryptoUnavailable)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(ti.random, salt); err != nil {
		return "", fmt.Errorf("%w: read salt: %v", ErrCryptoUnavailable, err)
	}

	h, err := ti.newDigest()
	if err != nil || h == nil {
		return "", fmt.Errorf("%w: digest: %v", ErrCryptoUnavailable, err)
	}
	h.Write(salt)
	h.Write([]byte(name))

	token := hex.EncodeToString(h.Sum(nil))
	if len(token) < minTokenLength {
		token = strings.Repeat("0", minTokenLength-len(token)) + token
	}
	return token, nil
}
