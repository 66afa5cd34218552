// Package auth signs and verifies the bearer tokens handed out to users.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: user identity plus the registered exp claim.
type Claims struct {
	UserID    string `json:"id"`
	EmailAddr string `json:"email_addr"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the subset of a user record carried in a token.
type Identity struct {
	UserID    string
	EmailAddr string
	Username  string
}

// GenerateToken signs an HS256 token for id that expires at expiresAt.
func GenerateToken(id Identity, secretKey []byte, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    id.UserID,
		EmailAddr: id.EmailAddr,
		Username:  id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString with secretKey and returns its claims.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken. Extra parser options are
// appended after the HS256 and exp requirements.
func ParseToken(tokenString string, secretKey []byte, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}

	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}, opts...)

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
