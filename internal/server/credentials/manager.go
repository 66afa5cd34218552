// Package credentials implements the credential lifecycle of a user record:
// setting and checking passwords and issuing bearer tokens.
//
// Manager only mutates the record it is given. Persisting the result is the
// caller's job.
package credentials

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/cryptox"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Manager is safe for concurrent use; it holds no per-record state.
type Manager struct {
	secret        []byte
	kdf           cryptox.KDFParams
	tokenValidity time.Duration
	now           func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenValidity overrides the 7 day token lifetime.
func WithTokenValidity(d time.Duration) Option {
	return func(m *Manager) { m.tokenValidity = d }
}

// WithKDF overrides the key derivation parameters.
func WithKDF(p cryptox.KDFParams) Option {
	return func(m *Manager) { m.kdf = p }
}

// NewManager builds a Manager signing tokens with secret.
func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, common.ErrEmptySecret
	}

	m := &Manager{
		secret:        append([]byte(nil), secret...),
		kdf:           cryptox.LegacyKDF,
		tokenValidity: common.DefaultTokenValidity,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SetPassword generates a new salt and stores the derived hash on u,
// replacing any previous credential. No password policy is applied here.
func (m *Manager) SetPassword(u *models.User, password string) error {
	if u == nil {
		return fmt.Errorf("%w: nil user", common.ErrPreconditionViolation)
	}

	salt, err := m.kdf.NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	u.Salt = salt
	u.Hash = m.kdf.DeriveHash(pw, salt)
	return nil
}

// ValidPassword reports whether candidate matches the stored credential.
// A record without salt or hash never validates.
func (m *Manager) ValidPassword(u *models.User, candidate string) bool {
	if !u.HasCredential() {
		return false
	}

	pw := []byte(candidate)
	defer common.WipeByteArray(pw)

	return cryptox.EqualHash(m.kdf.DeriveHash(pw, u.Salt), u.Hash)
}

// GenerateToken issues a signed token carrying u's id, email and username,
// expiring after the configured validity.
func (m *Manager) GenerateToken(u *models.User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("%w: nil user", common.ErrPreconditionViolation)
	}
	switch {
	case u.ID == "":
		return "", fmt.Errorf("%w: user has no id", common.ErrPreconditionViolation)
	case u.EmailAddr == "":
		return "", fmt.Errorf("%w: user has no email_addr", common.ErrPreconditionViolation)
	case u.Username == "":
		return "", fmt.Errorf("%w: user has no username", common.ErrPreconditionViolation)
	}

	id := auth.Identity{UserID: u.ID, EmailAddr: u.EmailAddr, Username: u.Username}
	return auth.GenerateToken(id, m.secret, m.now().Add(m.tokenValidity))
}

// ParseToken verifies a token issued by GenerateToken against the manager's
// clock.
func (m *Manager) ParseToken(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, m.secret, jwt.WithTimeFunc(m.now))
}
