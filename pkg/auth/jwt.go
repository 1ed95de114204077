package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pneumoscan/pneumoscan/internal/config"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrEmailMissing = errors.New("token carries no email claim")
)

// Claims is the identity we trust from the external provider: a verified
// clinician email. Tokens are issued elsewhere; this package only verifies.
type Claims struct {
	Subject string
	Email   string
}

type ownerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type TokenVerifier struct {
	cfg config.JWTConfig
}

func NewTokenVerifier(cfg config.JWTConfig) *TokenVerifier {
	return &TokenVerifier{cfg: cfg}
}

func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&ownerClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(v.cfg.Secret), nil
		},
		opts...,
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*ownerClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Email == "" {
		return nil, ErrEmailMissing
	}

	return &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}, nil
}
