package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadToken = errors.New("invalid token")

// Issuer is stamped on tokens minted by the in-memory API and required when
// they are verified.
const Issuer = "medibook-api"

// hashCost keeps seeding and signup fast in the in-memory API.
const hashCost = bcrypt.MinCost

// HashPassword and CheckPassword store and verify account passwords for the
// in-memory API. The console itself never sees a hash.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// MakeToken signs the bearer token the in-memory API hands out on login.
func MakeToken(uid, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseToken verifies a token on the in-memory API's protected routes. Any
// failure is reported as ErrBadToken.
func ParseToken(raw, secret string) (*Claims, error) {
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	c := &Claims{}
	_, err := p.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	return c, nil
}

// Peek decodes the claims of a bearer token without checking its signature.
// The client never holds the signing secret; the server stays the authority.
func Peek(raw string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Expired reports whether raw is a JWT whose exp is not after now.
// Opaque tokens and tokens without exp are left to the server to judge.
func Expired(raw string, now time.Time) bool {
	c, err := Peek(raw)
	if err != nil || c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.Time.After(now)
}
