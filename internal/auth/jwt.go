package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Verifier validates bearer tokens from the external identity provider
// and extracts the verified user id. The core trusts the subject claim
// and nothing else.
type Verifier struct {
	publicKey *ecdsa.PublicKey
}

// NewVerifier creates a Verifier from a PEM-encoded ECDSA public key.
func NewVerifier(publicKeyPEM string) (*Verifier, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("JWT public key not provided")
	}

	publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, err
	}

	return &Verifier{publicKey: publicKey}, nil
}

// VerifyToken validates a bearer JWT and returns the user id from the
// subject claim.
func (v *Verifier) VerifyToken(tokenStr string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodES256 {
			return nil, errors.New("invalid signing method")
		}
		return v.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, errors.New("missing subject claim")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("subject is not a user id")
	}

	return userID, nil
}

// Middleware authenticates requests with a Bearer JWT and stores the
// verified user id in the request context. Requests without a valid
// token are rejected with 401; the health endpoint is exempt.
func (v *Verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, ok := bearerToken(r)
			if !ok {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			userID, err := v.VerifyToken(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("JWT verification failed")
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, prefix)
	return token, token != ""
}

// PrincipalFromContext returns the verified user id stored by the
// middleware.
func PrincipalFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(principalContextKey).(uuid.UUID)
	return userID, ok
}

// WithPrincipal stores a verified user id in the context. Used by tests
// and by transports that authenticate out of band.
func WithPrincipal(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, principalContextKey, userID)
}
