package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

const defaultTokenTTL = 14 * 24 * time.Hour

// TokenIssuer signs and verifies player identity tokens (HS256).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl <= 0 selects the default.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token carrying the player identity.
func (t *TokenIssuer) Issue(playerID, name string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  playerID,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(t.ttl).Unix(),
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuthTokenInvalid, "sign token", err)
	}
	return signed, nil
}

// Verify parses a token and returns the player ID it carries.
func (t *TokenIssuer) Verify(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "invalid token")
	}
	playerID, _ := claims["sub"].(string)
	if playerID == "" {
		return "", apperrors.New(apperrors.CodeAuthTokenInvalid, "invalid token")
	}
	return playerID, nil
}

type contextKey string

const playerCtxKey = contextKey("player")

// bearerToken extracts the token from the Authorization header or, for
// websocket clients that cannot set headers, the token query parameter.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return r.URL.Query().Get("token")
}

// Require rejects requests without a valid player token and stashes the
// player ID in the request context.
func (t *TokenIssuer) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			renderError(w, apperrors.New(apperrors.CodeAuthTokenMissing, "authorization required"))
			return
		}
		playerID, err := t.Verify(tokenStr)
		if err != nil {
			renderError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), playerCtxKey, playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentPlayer reads the authenticated player ID from the request context.
func currentPlayer(r *http.Request) string {
	playerID, _ := r.Context().Value(playerCtxKey).(string)
	return playerID
}
