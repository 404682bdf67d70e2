package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/asset-ledger/ledger"
)

// Claims carries the actor triple inside the session token so the API can
// authorize without a database lookup per request.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	HomeBase string `json:"home_base,omitempty"`
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: empty token secret")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Issue signs a token for the actor.
func (t *TokenIssuer) Issue(actor ledger.Actor) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID:   actor.UserID,
		Role:     string(actor.Role),
		HomeBase: actor.HomeBase,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates signature and expiry and returns the embedded actor.
func (t *TokenIssuer) Parse(tokenString string) (ledger.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return ledger.Actor{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return ledger.Actor{}, fmt.Errorf("auth: invalid claims")
	}

	role := ledger.Role(claims.Role)
	if !role.Valid() {
		return ledger.Actor{}, fmt.Errorf("auth: unknown role %q", claims.Role)
	}
	return ledger.Actor{UserID: claims.UserID, Role: role, HomeBase: claims.HomeBase}, nil
}
