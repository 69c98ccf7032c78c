// Package auth issues and verifies the bearer tokens that gate the game API.
// Tokens are stateless: the server keeps only the signing secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims (subject = username) plus the user's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Issuer signs and verifies HS256 tokens with a secret fixed at construction.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(secretKey string, validity time.Duration) *Issuer {
	return &Issuer{
		secret:   []byte(secretKey),
		validity: validity,
		now:      time.Now,
	}
}

// Issue produces a token asserting username, valid for the configured duration.
func (i *Issuer) Issue(username, role string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.validity)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the asserted username.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyClaims is Verify returning the full claim set.
func (i *Issuer) VerifyClaims(tokenString string) (*Claims, error) {
	return i.parse(tokenString)
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrMalformedToken
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
}
