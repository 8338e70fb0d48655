package utils

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

var (
	ErrMissingSubject    = errors.New("token has no subject")
	ErrUnauthorizedParty = errors.New("token issued for an unauthorized party")
)

// SessionClaims are the claims of an identity-provider session token.
type SessionClaims struct {
	AuthorizedParty string `json:"azp,omitempty"`
	jwt.StandardClaims
}

// TokenVerifier checks RS256 session tokens against the provider's public key.
type TokenVerifier struct {
	key     *rsa.PublicKey
	parties map[string]struct{}
}

func NewTokenVerifier(publicKeyPEM string, authorizedParties []string) (*TokenVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse session token key: %w", err)
	}
	parties := make(map[string]struct{}, len(authorizedParties))
	for _, p := range authorizedParties {
		parties[p] = struct{}{}
	}
	return &TokenVerifier{key: key, parties: parties}, nil
}

// Verify validates signature, expiry and subject of tokenString.
func (v *TokenVerifier) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// VerifyParty additionally requires the azp claim to be allow-listed, when a list is configured.
func (v *TokenVerifier) VerifyParty(tokenString string) (*SessionClaims, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if len(v.parties) > 0 {
		if _, ok := v.parties[claims.AuthorizedParty]; !ok {
			return nil, ErrUnauthorizedParty
		}
	}
	return claims, nil
}
