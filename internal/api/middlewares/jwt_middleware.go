package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	visitorClaim    = "visitor_id"
	visitorTokenTTL = 365 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid visitor token")

type contextKey string

const visitorIDKey contextKey = "visitor_id"

// VisitorTokens issues and verifies the HS256 token that identifies a
// browser across reloads.
type VisitorTokens struct {
	secret []byte
	now    func() time.Time
}

func NewVisitorTokens(secret string) *VisitorTokens {
	return &VisitorTokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token carrying visitorID.
func (v *VisitorTokens) Issue(visitorID string) (string, error) {
	now := v.now()
	claims := jwt.MapClaims{
		visitorClaim: visitorID,
		"iat":        now.Unix(),
		"exp":        now.Add(visitorTokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign visitor token: %w", err)
	}
	return token, nil
}

// Parse returns the visitor ID of a valid token.
func (v *VisitorTokens) Parse(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	visitorID, ok := claims[visitorClaim].(string)
	if !ok || visitorID == "" {
		return "", ErrInvalidToken
	}
	return visitorID, nil
}

// FromRequest reads the bearer token of r.
func (v *VisitorTokens) FromRequest(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	return v.Parse(strings.TrimPrefix(auth, "Bearer "))
}

// Middleware validates the Authorization header and attaches the visitor ID
// to the request context.
func (v *VisitorTokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		visitorID, err := v.FromRequest(r)
		if err != nil {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), visitorID)))
	})
}

func WithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

func VisitorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}
