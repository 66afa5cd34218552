// Package cryptox holds the password key-derivation primitives used by the
// credential manager.
package cryptox

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"hash"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// KDFParams describes a PBKDF2 configuration.
type KDFParams struct {
	Iterations int
	KeyLen     int
	SaltSize   int
	Digest     func() hash.Hash
}

// LegacyKDF reproduces the parameters of the stored user base: 16-byte salt,
// 1000 rounds of PBKDF2-HMAC-SHA1, 64-byte derived key.
//
// 1000 iterations is far below current guidance. Changing it invalidates
// every existing hash, so it stays until a migration path is decided.
var LegacyKDF = KDFParams{
	Iterations: 1000,
	KeyLen:     64,
	SaltSize:   16,
	Digest:     sha1.New,
}

// NewSalt returns a fresh random salt rendered as lowercase hex.
func (p KDFParams) NewSalt() (string, error) {
	return common.MakeRandHexString(p.SaltSize)
}

// DeriveHash derives the hex encoded key for password. The salt is used as
// its hex text, not as decoded bytes.
func (p KDFParams) DeriveHash(password []byte, salt string) string {
	key := pbkdf2.Key(password, []byte(salt), p.Iterations, p.KeyLen, p.Digest)
	return hex.EncodeToString(key)
}

// EqualHash compares two hex hashes in constant time.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
