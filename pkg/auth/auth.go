// Package auth verifies bearer tokens issued elsewhere and exposes the caller
// identity to handlers. Token issuance is not handled here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/golang-jwt/jwt/v5"
)

// DevSecret signs tokens in development when no secret is configured.
const DevSecret = "dev-secret"

var ErrMissingSecret = errors.New("auth.jwt.secret is required outside development")

type contextKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Claims is the token payload shared with the token issuer.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// Verifier checks HMAC signed tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ResolveSecret returns secret, or DevSecret when it is empty and env names a
// development environment. fellBack reports the second case.
func ResolveSecret(secret, env string) (resolved string, fellBack bool, err error) {
	if secret != "" {
		return secret, false, nil
	}
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return DevSecret, true, nil
	}
	return "", false, ErrMissingSecret
}

// VerifierFrom builds a verifier from "auth.jwt.secret", resolved against
// "env". Falling back to DevSecret is logged as a warning.
func VerifierFrom(config *aqm.Config, logger aqm.Logger) (*Verifier, error) {
	secret, _ := config.GetString("auth.jwt.secret")
	env := config.GetStringOrDef("env", "dev")
	resolved, fellBack, err := ResolveSecret(secret, env)
	if err != nil {
		return nil, fmt.Errorf("%w (env %s)", err, env)
	}
	if fellBack && logger != nil {
		logger.Info("WARNING: auth.jwt.secret is not set, using the development signing secret", "env", env)
	}
	return NewVerifier(resolved), nil
}

// Verify parses token and returns the identity it carries.
func (v *Verifier) Verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}

// Sign issues a token for id. It exists for tests and local tooling.
func (v *Verifier) Sign(id Identity, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           id.UserID,
		Email:            id.Email,
		Role:             id.Role,
		RegisteredClaims: claims,
	})
	return token.SignedString(v.secret)
}

// Middleware attaches the identity of a valid bearer token to the request
// context. Requests without a token pass through anonymously; requests with
// a bad token are rejected with 401.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || v == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}

			id, err := v.Verify(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom returns the caller identity, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.UserID != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
}
