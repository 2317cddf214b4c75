package auth

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// CallerKey is the gin context key holding the authenticated principal.
const CallerKey = "addr"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Issue signs an HS256 token naming addr as the caller.
func Issue(secret []byte, addr string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		CallerKey: addr,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Middleware rejects requests without a valid bearer token and stores
// the token's addr claim under CallerKey.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			_ = c.Error(ErrMissingToken)
			c.Abort()
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(
			raw,
			claims,
			func(*jwt.Token) (any, error) { return secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			_ = c.Error(ErrInvalidToken)
			c.Abort()
			return
		}

		addr, _ := claims[CallerKey].(string)
		if addr == "" {
			_ = c.Error(ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(CallerKey, addr)
		c.Next()
	}
}

// Caller returns the principal authenticated by Middleware.
func Caller(c *gin.Context) string {
	return c.GetString(CallerKey)
}
