// Package auth verifies bearer tokens and gates handlers on an authenticated
// user.
package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dharsanguruparan/imggen/internal/common"
)

// UserID is the "id" claim. Tokens minted by other services carry it either
// as a JSON number or a string; both decode to the same text form.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id claim: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// Claims are the registered claims plus the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID UserID `json:"id"`
}

var ErrMissingUserID = fmt.Errorf("%w: token has no id claim", common.ErrUnauthenticated)

// GenerateToken signs an HS256 token for userID. A zero ttl yields a
// token without an expiry.
func GenerateToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	claims := Claims{UserID: UserID(userID)}
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// hmacMethods are the algorithms usable with a shared secret.
var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// ParseToken verifies tokenString against secret and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods(hmacMethods))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if strings.TrimSpace(string(claims.UserID)) == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}
