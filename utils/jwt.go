package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenAudience is the audience of every session token.
const TokenAudience = "user"

// ErrInvalidToken is returned for malformed, expired or foreign tokens.
var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserId   uint64 `json:"userId"`
	ClientId string `json:"clientId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret   []byte
	clientID string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates an HS256 issuer.
func NewTokenIssuer(secret, clientID string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		clientID: clientID,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// GenerateToken creates a JWT for userId.
func (i *TokenIssuer) GenerateToken(userId uint64) (string, error) {
	now := i.now()
	claims := Claims{
		UserId:   userId,
		ClientId: i.clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userId, 10),
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken parses and validates a JWT.
func (i *TokenIssuer) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.VerifyAudience(TokenAudience, true) || claims.UserId == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
