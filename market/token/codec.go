// Package token extracts claims from marketplace access tokens.
//
// The client never holds the signing key, so tokens are decoded without
// signature verification. Claims are used for local identity and display
// only; authorization is enforced server-side, which rejects expired or
// forged tokens on protected calls.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the fields decoded from an access token's payload.
type Claims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DecodeError indicates a malformed token: not the expected three-segment
// JWT structure, or a payload that is not valid claims data.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode token: %v", e.err)
}

func (e *DecodeError) Unwrap() error {
	return e.err
}

// Decode parses the token's payload segment and returns its claims.
// It does not verify the signature and does not check ExpiresAt against
// the current time. Decode is a pure function: the same token always
// yields the same claims.
func Decode(raw string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return Claims{}, &DecodeError{err: err}
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, &DecodeError{err: fmt.Errorf("unexpected claims type %T", parsed.Claims)}
	}

	claims := Claims{}
	claims.UserID, _ = mapClaims["userId"].(string)
	claims.Email, _ = mapClaims["email"].(string)

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
