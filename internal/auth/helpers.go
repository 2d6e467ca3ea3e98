package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	respond "github.com/sakina-app/sakina-server/internal/api/respond"
)

// ExtractBearer extracts the token from an "Authorization: Bearer <token>" header.
func ExtractBearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

type identityKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by Middleware, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's Identity on the request context.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractBearer(r)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				respond.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			id, err := v.Verify(r.Context(), token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				w.Header().Set("WWW-Authenticate", "Bearer")
				respond.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			ctx := WithIdentity(r.Context(), id)
			l := zerolog.Ctx(ctx).With().Str("user_id", id.UserID).Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
		})
	}
}
