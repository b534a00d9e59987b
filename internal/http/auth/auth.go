// Package auth resolves the calling investor from a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/http/respond"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
)

// Claims identify an investor. Subject carries the investor ID.
type Claims struct {
	Staff bool `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewAuthenticator(secret, issuer string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &Authenticator{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for actor valid for ttl.
func (a *Authenticator) Issue(actor transfer.Actor, ttl time.Duration) (string, error) {
	now := a.now()

	claims := Claims{
		Staff: actor.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Parse validates a signed token and returns the actor it names.
func (a *Authenticator) Parse(token string) (transfer.Actor, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return transfer.Actor{}, fmt.Errorf("parsing token: %w", err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return transfer.Actor{}, fmt.Errorf("parsing subject: %w", err)
	}

	return transfer.Actor{ID: id, Staff: claims.Staff}, nil
}

// Middleware rejects requests without a valid bearer token and stores the actor in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respond.Unauthorized(w, r, "missing bearer token")
			return
		}

		actor, err := a.Parse(token)
		if err != nil {
			respond.Unauthorized(w, r, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

type actorKey struct{}

func WithActor(ctx context.Context, actor transfer.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by Middleware. Handlers mounted behind it can
// rely on ok being true.
func ActorFrom(ctx context.Context) (transfer.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(transfer.Actor)
	return actor, ok
}

// Actor returns the caller of r, or the zero actor outside Middleware.
func Actor(r *http.Request) transfer.Actor {
	actor, _ := ActorFrom(r.Context())
	return actor
}
