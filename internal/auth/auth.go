// Package auth holds password hashing and JWT issuance/verification.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload: who the user is, what they may do, and which
// hub they belong to.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	HubID string `json:"hubID,omitempty"`
	jwt.RegisteredClaims
}

var (
	secret     []byte
	expiration = 24 * time.Hour
)

// Configure sets the signing secret and token lifetime from config. Must
// be called once at startup before any token is issued or parsed.
func Configure(jwtSecret string, tokenLifetime time.Duration) {
	secret = []byte(jwtSecret)
	if tokenLifetime > 0 {
		expiration = tokenLifetime
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GenerateToken(email, role, hubID string) (string, error) {
	claims := &Claims{
		Email: email,
		Role:  role,
		HubID: hubID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry and returns the claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
