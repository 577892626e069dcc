package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the bearer of an access token.
type Claims struct {
	Username string
	Role     string
	ClientID string
}

// IssueToken signs an HS256 token that Auth accepts. A zero ttl issues a
// token without expiry.
func IssueToken(secret string, c Claims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("issue token: empty secret")
	}
	now := time.Now()
	mc := jwt.MapClaims{
		"username":  c.Username,
		"role":      c.Role,
		"client_id": c.ClientID,
		"iat":       now.Unix(),
	}
	if ttl > 0 {
		mc["exp"] = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
}
